package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Severity tags every reported failure, including the ones the dashboard
// keeps off screen.
type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

func (s Severity) level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarn:
		return slog.LevelWarn
	}
	return slog.LevelError
}

// Report is one warn or error entry kept for the status line.
type Report struct {
	Time     time.Time
	Severity Severity
	Op       string
	Err      string
}

const maxRecentReports = 50

// Reporter funnels every caught client error into one slog logger and
// keeps the most recent warn and error reports in memory for the status
// line.  Debug and info reports are only logged.  A nil *Reporter discards.
type Reporter struct {
	log *slog.Logger

	mu     sync.Mutex
	recent []Report
}

// NewReporter wraps l; a nil l uses slog.Default().
func NewReporter(l *slog.Logger) *Reporter {
	if l == nil {
		l = slog.Default()
	}
	return &Reporter{log: l}
}

// Report logs err for op at sev.  attrs are slog key/value pairs.
func (r *Reporter) Report(sev Severity, op string, err error, attrs ...any) {
	if r == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
		attrs = append(attrs, slog.String("error", msg))
	}
	attrs = append(attrs, slog.String("severity", string(sev)))
	r.log.Log(context.Background(), sev.level(), op, attrs...)
	if sev != SeverityWarn && sev != SeverityError {
		return
	}

	r.mu.Lock()
	r.recent = append(r.recent, Report{Time: time.Now(), Severity: sev, Op: op, Err: msg})
	if n := len(r.recent) - maxRecentReports; n > 0 {
		r.recent = append(r.recent[:0:0], r.recent[n:]...)
	}
	r.mu.Unlock()
}

// Recent returns the kept reports, oldest first.
func (r *Reporter) Recent() []Report {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.recent))
	copy(out, r.recent)
	return out
}

// Latest returns the newest kept report.
func (r *Reporter) Latest() (Report, bool) {
	if r == nil {
		return Report{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.recent) == 0 {
		return Report{}, false
	}
	return r.recent[len(r.recent)-1], true
}
