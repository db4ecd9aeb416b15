package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/albertocavalcante/go-jpm/library"
)

var _ library.ScanQueue = (*ScanLog)(nil)

// ScanLog is a scan queue that records requests instead of scanning.
type ScanLog struct {
	mu       sync.Mutex
	requests []library.ScanRequest
}

// QueueScan records req.
func (q *ScanLog) QueueScan(ctx context.Context, req library.ScanRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requests = append(q.requests, req)
	return nil
}

// Requests returns the recorded requests in arrival order.
func (q *ScanLog) Requests() []library.ScanRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.requests)
}
