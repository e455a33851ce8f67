package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"candlebliss-api/internal/metrics"
)

const (
	// QueueDefault is the queue every catalog task runs on
	QueueDefault = "default"

	// TaskCatalogWarm refreshes the cached products, prices and gifts
	TaskCatalogWarm = "catalog:warm"
)

// CatalogWarmPayload describes one warmup run
type CatalogWarmPayload struct {
	Reason string `json:"reason"`
}

// Warmer reloads the catalog cache
type Warmer interface {
	Warm(ctx context.Context) error
}

// NewCatalogWarmTask constructs a catalog:warm task
func NewCatalogWarmTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(CatalogWarmPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarm, data), nil
}

// CatalogWarmJob handles catalog:warm tasks
type CatalogWarmJob struct {
	warmer  Warmer
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewCatalogWarmJob wires the warmup handler. timeout bounds one run.
func NewCatalogWarmJob(warmer Warmer, m *metrics.Metrics, timeout time.Duration) *CatalogWarmJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CatalogWarmJob{warmer: warmer, metrics: m, timeout: timeout}
}

// Handle processes a catalog:warm task
func (j *CatalogWarmJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CatalogWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TaskCatalogWarm, err, asynq.SkipRetry)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	tracker := j.metrics.Track(TaskCatalogWarm)
	start := time.Now()
	err := tracker.End(j.warmer.Warm(ctx))
	if err != nil {
		log.Printf("[Jobs] %s (%s) failed after %v: %v", TaskCatalogWarm, payload.Reason, time.Since(start), err)
		return err
	}
	log.Printf("[Jobs] %s (%s) done in %v", TaskCatalogWarm, payload.Reason, time.Since(start))
	return nil
}
