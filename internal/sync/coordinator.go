package sync

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/perbakken/clubtrack/backend/internal/errors"
	"github.com/perbakken/clubtrack/backend/internal/logging"
	"github.com/perbakken/clubtrack/backend/internal/models"
	"github.com/perbakken/clubtrack/backend/internal/sync/queue"
)

// maxRetries is the retry budget shared by every queued operation. Once a
// record's retry count reaches this value it is abandoned: removed from the
// queue and logged, never attempted again.
const maxRetries = 3

// passTimeout bounds one full sync pass.
const passTimeout = 5 * time.Minute

// Config holds coordinator configuration.
type Config struct {
	Interval       time.Duration // Auto-sync cadence (default: 1 minute)
	RequestTimeout time.Duration // Per-request HTTP timeout (default: 30 seconds)
	BaseURL        string        // Remote endpoint base URL
}

// DefaultConfig returns default coordinator configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval:       1 * time.Minute,
		RequestTimeout: 30 * time.Second,
		BaseURL:        "http://localhost:8080",
	}
}

// SyncReport summarizes one synchronization pass.
type SyncReport struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Attempted int
	Synced    int
	Retried   int // failed, still queued for a future pass
	Abandoned int
}

// Coordinator drives reconciliation of the durable operation queue with the
// remote endpoints. It owns the retry/abandonment policy and the scheduling
// of sync passes; it is the only component that removes queue records or
// touches retry counts.
type Coordinator struct {
	store   *queue.Store
	client  *EndpointClient
	monitor *ConnectivityMonitor

	mu             sync.RWMutex
	running        bool
	syncInProgress bool
	lastSyncTime   time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
	subID  int

	abandonFn func(*models.Operation)
}

// NewCoordinator creates a Coordinator over the given store, endpoint client
// and connectivity monitor.
func NewCoordinator(store *queue.Store, client *EndpointClient, monitor *ConnectivityMonitor) *Coordinator {
	return &Coordinator{
		store:   store,
		client:  client,
		monitor: monitor,
	}
}

// SetAbandonFunc registers a callback invoked with each operation that is
// permanently abandoned. Must be set before StartAutoSync; the desktop
// surface uses it to notify the UI of the lost action.
func (c *Coordinator) SetAbandonFunc(fn func(*models.Operation)) {
	c.abandonFn = fn
}

// Sync performs one complete pass over the queue as it existed at the start
// of the call, strictly in enqueue order and one request at a time.
//
// Per record: a successful dispatch removes it immediately; a failed dispatch
// increments its retry count, and if the count has reached the budget the
// record is removed and logged as abandoned. One record's failure never
// aborts the pass for the remaining queue.
//
// A call that arrives while another pass is running is rejected with
// SYNC_IN_PROGRESS; overlapping passes would dispatch the same record twice.
func (c *Coordinator) Sync(ctx context.Context) (*SyncReport, error) {
	c.mu.Lock()
	if c.syncInProgress {
		c.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrSyncInProgress, "a sync pass is already running")
	}
	c.syncInProgress = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.syncInProgress = false
		c.mu.Unlock()
	}()

	report := &SyncReport{StartTime: time.Now()}
	finish := func() {
		report.EndTime = time.Now()
		report.Duration = report.EndTime.Sub(report.StartTime)
	}

	pending, err := c.store.ListPending()
	if err != nil {
		finish()
		return nil, err
	}

	if len(pending) > 0 {
		logging.Info("Sync pass started", map[string]interface{}{"pending": len(pending)})
	}

	for _, op := range pending {
		select {
		case <-ctx.Done():
			finish()
			return report, ctx.Err()
		default:
		}

		report.Attempted++

		if err := c.client.Dispatch(ctx, op); err != nil {
			c.handleFailure(op, err, report)
			continue
		}

		if err := c.store.Remove(op.ID.String()); err != nil {
			logging.Error("Failed to remove synced operation", err,
				map[string]interface{}{"op_id": op.ID.String()})
			continue
		}
		report.Synced++
		logging.Debug("Operation synced", map[string]interface{}{
			"op_id":    op.ID.String(),
			"resource": string(op.Resource),
		})
	}

	c.mu.Lock()
	c.lastSyncTime = time.Now()
	c.mu.Unlock()

	finish()
	return report, nil
}

// handleFailure applies the retry/abandonment policy to one failed attempt.
// Every failure cause (HTTP error status, transport error) is treated as the
// same failed-attempt outcome.
func (c *Coordinator) handleFailure(op *models.Operation, dispatchErr error, report *SyncReport) {
	count, err := c.store.IncrementRetry(op.ID.String())
	if err != nil {
		logging.Error("Failed to record failed attempt", err,
			map[string]interface{}{"op_id": op.ID.String()})
		return
	}

	if count < maxRetries {
		report.Retried++
		logging.Debug("Operation failed, will retry on a later pass", map[string]interface{}{
			"op_id":       op.ID.String(),
			"resource":    string(op.Resource),
			"retry_count": count,
			"error":       dispatchErr.Error(),
		})
		return
	}

	// Retry budget exhausted: deliberate, logged data loss, not a crash.
	if err := c.store.Remove(op.ID.String()); err != nil {
		logging.Error("Failed to remove abandoned operation", err,
			map[string]interface{}{"op_id": op.ID.String()})
		return
	}

	report.Abandoned++
	logging.Warn("Operation abandoned after exhausting retries", map[string]interface{}{
		"op_id":       op.ID.String(),
		"resource":    string(op.Resource),
		"op_type":     string(op.OpType),
		"retry_count": count,
		"error":       dispatchErr.Error(),
	})

	if c.abandonFn != nil {
		c.abandonFn(op)
	}
}

// StartAutoSync begins recurring synchronization: a ticker invokes a pass
// every interval while online, and a connectivity subscription triggers an
// immediate out-of-cadence pass when the environment comes back online.
func (c *Coordinator) StartAutoSync(interval time.Duration) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.mu.Unlock()

	if interval <= 0 {
		interval = DefaultConfig().Interval
	}

	subID, subCh := c.monitor.Subscribe()
	c.mu.Lock()
	c.subID = subID
	c.mu.Unlock()

	c.wg.Add(1)
	go c.autoSyncLoop(interval, stopCh, subCh)

	logging.Info("Auto-sync started", map[string]interface{}{
		"interval_seconds": interval.Seconds(),
	})
}

// StopAutoSync cancels the ticker and the connectivity subscription and
// waits for the loop goroutine. An in-flight pass finishes normally; the
// current network call is never aborted.
func (c *Coordinator) StopAutoSync() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	subID := c.subID
	stopCh := c.stopCh
	c.mu.Unlock()

	c.monitor.Unsubscribe(subID)
	close(stopCh)
	c.wg.Wait()

	logging.Info("Auto-sync stopped", nil)
}

// autoSyncLoop runs scheduled passes until stopped.
func (c *Coordinator) autoSyncLoop(interval time.Duration, stopCh <-chan struct{}, connCh <-chan bool) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !c.monitor.IsOnline() {
				logging.Debug("Skipping scheduled sync while offline", nil)
				continue
			}
			c.runScheduledPass("timer")
		case online := <-connCh:
			if online {
				c.runScheduledPass("connectivity")
			}
		}
	}
}

// runScheduledPass executes one pass on behalf of the timer or the
// connectivity signal.
func (c *Coordinator) runScheduledPass(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	report, err := c.Sync(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSyncInProgress) {
			logging.Debug("Sync already in progress, skipping",
				map[string]interface{}{"trigger": trigger})
			return
		}
		logging.ErrorWithCode("Sync pass failed", string(apperrors.ErrSyncFailed), err,
			map[string]interface{}{"trigger": trigger})
		return
	}

	if report.Attempted > 0 {
		logging.Info("Sync pass completed", map[string]interface{}{
			"trigger":   trigger,
			"synced":    report.Synced,
			"retried":   report.Retried,
			"abandoned": report.Abandoned,
		})
	}
}

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	Running        bool       `json:"running"`
	Online         bool       `json:"online"`
	SyncInProgress bool       `json:"sync_in_progress"`
	LastSyncTime   *time.Time `json:"last_sync_time,omitempty"`
	PendingCount   int        `json:"pending_count"`
}

// Status returns the coordinator status and the current pending count.
func (c *Coordinator) Status() (Status, error) {
	count, err := c.store.Count()
	if err != nil {
		return Status{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		Running:        c.running,
		Online:         c.monitor.IsOnline(),
		SyncInProgress: c.syncInProgress,
		PendingCount:   count,
	}
	if !c.lastSyncTime.IsZero() {
		t := c.lastSyncTime
		status.LastSyncTime = &t
	}

	return status, nil
}
