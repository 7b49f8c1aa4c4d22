package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

func formatID(id int64) string { return fmt.Sprintf("%020d", id) }

func parseID(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func marshalJSON(v interface{}) ([]byte, error) { return json.Marshal(v) }

func unmarshal(b []byte, v interface{}) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("corrupt store record: %w", err)
	}
	return nil
}
