package audit

import (
	"time"
)

// Entry is one audited proxy operation. Payloads are never stored.
type Entry struct {
	ID             string
	RequestID      string
	Operation      string
	Target         string
	Category       string
	UpstreamStatus int
	Duration       time.Duration
	Timestamp      time.Time
}

// Filter narrows Store.List. Zero fields match everything.
type Filter struct {
	Operation string
	Category  string
	Since     time.Time
	Limit     int
}
