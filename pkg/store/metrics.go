package store

// Metrics is a compact view of the underlying pebble engine, exported to
// the prometheus collectors in pkg/metrics.
type Metrics struct {
	DiskUsageBytes  uint64
	WALBytes        uint64
	MemtableBytes   uint64
	CompactionCount int64
}

// EngineMetrics returns best-effort metrics about the pebble instance.
func (s *Store) EngineMetrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Metrics
	if s.db == nil {
		return out
	}
	m := s.db.Metrics()
	if m == nil {
		return out
	}
	out.DiskUsageBytes = m.DiskSpaceUsage()
	out.WALBytes = m.WAL.Size
	out.MemtableBytes = m.MemTable.Size
	out.CompactionCount = m.Compact.Count
	return out
}
