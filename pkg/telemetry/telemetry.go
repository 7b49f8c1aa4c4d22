// Package telemetry is low-overhead request tracing for local use: only
// sampled requests get a full record, everything else is logged only
// when slow. Records are JSON lines appended by a background writer.
package telemetry

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

var (
	writerOnce sync.Once
	writerCh   chan []byte
	requestCtr uint64

	sampleRate    = 0.001
	slowThreshold = 200 * time.Millisecond
	sinkDir       = "logs"
)

type record struct {
	RequestID  string `json:"request_id"`
	Kind       string `json:"kind"` // "sampled" or "slow"
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	StartMs    int64  `json:"start_ms"`
}

// Configure sets the sink directory and sampling rate. A rate of 0
// disables full traces; slow requests are always recorded.
func Configure(dir string, rate float64) {
	if dir != "" {
		sinkDir = dir
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	sampleRate = rate
}

// SetSlowThreshold sets the duration above which non-sampled requests
// still get a record.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThreshold = d
	}
}

// Middleware records sampled and slow requests to the jsonl sink.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sampled := shouldSample(r)
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		if !sampled && dur <= slowThreshold {
			return
		}
		kind := "sampled"
		if !sampled {
			kind = "slow"
		}
		rec := record{
			RequestID:  genRequestID(),
			Kind:       kind,
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     srw.status,
			DurationMs: dur.Milliseconds(),
			StartMs:    start.UnixMilli(),
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return
		}
		writerOnce.Do(initWriter)
		select {
		case writerCh <- b:
		default:
			// drop rather than block the request path
		}
	})
}

// initWriter starts the background appender; if the sink cannot be
// opened telemetry is silently off.
func initWriter() {
	writerCh = make(chan []byte, 1024)
	go func() {
		_ = os.MkdirAll(sinkDir, 0o755)
		f, err := os.OpenFile(filepath.Join(sinkDir, "telemetry.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			for range writerCh {
			}
			return
		}
		defer f.Close()
		for b := range writerCh {
			_, _ = f.Write(append(b, '\n'))
		}
	}()
}

// shouldSample is a cheap deterministic 1-in-N decision; the
// X-Debug-Telemetry header forces a full trace.
func shouldSample(r *http.Request) bool {
	if r.Header.Get("X-Debug-Telemetry") == "1" {
		return true
	}
	if sampleRate <= 0 {
		return false
	}
	denom := int64(1 / sampleRate)
	if denom <= 1 {
		return true
	}
	n := int64(atomic.AddUint64(&requestCtr, 1))
	return n%denom == 0
}

func genRequestID() string {
	n := atomic.AddUint64(&requestCtr, 1)
	return "r-" + time.Now().Format("20060102T150405") + "-" + uitoa(n)
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 0, 20)
	for v > 0 {
		buf = append(buf, byte('0')+byte(v%10))
		v /= 10
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
