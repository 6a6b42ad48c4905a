package messaging

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu      sync.Mutex
	Issued  []TicketsIssued
	Refunds []RefundRequired
}

func (r *Recorder) PublishTicketsIssued(_ context.Context, evt TicketsIssued) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issued = append(r.Issued, evt)
	return nil
}

func (r *Recorder) PublishRefundRequired(_ context.Context, evt RefundRequired) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Refunds = append(r.Refunds, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) RefundReasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Refunds))
	for _, e := range r.Refunds {
		out = append(out, e.Reason)
	}
	return out
}
