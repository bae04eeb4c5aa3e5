// Package audit records the outcome of every state-mutating call. The trail
// is purely observational and never gates the core logic.
package audit

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one audit record.
type Entry struct {
	Actor    string    `json:"actor"`
	Method   string    `json:"method"`
	Endpoint string    `json:"endpoint"`
	Status   int       `json:"status"`
	Success  bool      `json:"success"`
	Remarks  string    `json:"remarks"`
	At       time.Time `json:"at"`
}

// Publisher receives audit entries.
type Publisher interface {
	Publish(entry Entry)
}

// LogPublisher ships entries to the structured log from a background worker.
// Publish never blocks the request path: entries are dropped with a warning
// when the buffer is full.
type LogPublisher struct {
	entries chan Entry
	done    chan struct{}
}

// NewLogPublisher creates a publisher with the given buffer size and starts
// its worker.
func NewLogPublisher(buffer int) *LogPublisher {
	p := &LogPublisher{
		entries: make(chan Entry, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *LogPublisher) run() {
	defer close(p.done)
	for entry := range p.entries {
		logrus.WithFields(logrus.Fields{
			"actor":    entry.Actor,
			"method":   entry.Method,
			"endpoint": entry.Endpoint,
			"status":   entry.Status,
			"success":  entry.Success,
			"remarks":  entry.Remarks,
			"at":       entry.At.Format(time.RFC3339),
		}).Info("audit")
	}
}

// Publish enqueues an entry without blocking
func (p *LogPublisher) Publish(entry Entry) {
	select {
	case p.entries <- entry:
	default:
		logrus.WithField("endpoint", entry.Endpoint).Warn("audit buffer full, entry dropped")
	}
}

// Close drains the queue and stops the worker
func (p *LogPublisher) Close() {
	close(p.entries)
	<-p.done
}
