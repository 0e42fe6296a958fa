package reservations

import (
	"context"
	"sync"
	"time"

	"tablebook/pkg/logger"
)

// JobConfig contains configuration for background jobs
type JobConfig struct {
	ExpiryCheckInterval time.Duration
	BatchSize           int
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		ExpiryCheckInterval: time.Minute,
		BatchSize:           100,
	}
}

// JobProcessor releases the tables of options that were never confirmed
type JobProcessor struct {
	service Service
	config  *JobConfig
	log     *logger.Logger
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastExpired int
	lastError   string
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}
	if config.ExpiryCheckInterval <= 0 {
		config.ExpiryCheckInterval = time.Minute
	}

	return &JobProcessor{
		service: service,
		config:  config,
		log:     logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start starts the option expiry sweep
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.wg.Add(1)
	go jp.startExpiryProcessor(ctx)
}

// Stop stops the sweep and waits for a running batch to finish
func (jp *JobProcessor) Stop() {
	jp.stop.Do(func() { close(jp.done) })
	jp.wg.Wait()
}

func (jp *JobProcessor) startExpiryProcessor(ctx context.Context) {
	defer jp.wg.Done()
	jp.setRunning(true)
	defer jp.setRunning(false)

	ticker := time.NewTicker(jp.config.ExpiryCheckInterval)
	defer ticker.Stop()

	jp.log.WithFields(map[string]interface{}{
		"interval":   jp.config.ExpiryCheckInterval.String(),
		"batch_size": jp.config.BatchSize,
	}).Info("Started option expiry processor")

	for {
		select {
		case <-ticker.C:
			jp.processExpiredOptions(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// processExpiredOptions runs one sweep and returns how many options were cancelled
func (jp *JobProcessor) processExpiredOptions(ctx context.Context) int {
	expired, err := jp.service.ExpireOptions(ctx, jp.config.BatchSize)
	jp.record(expired, err)
	if err != nil {
		jp.log.ErrorWithContext(ctx, "Error processing expired options", err, nil)
		return 0
	}

	if expired > 0 {
		jp.log.InfoWithContext(ctx, "Cancelled expired options", map[string]interface{}{"count": expired})
	}
	return expired
}

func (jp *JobProcessor) setRunning(running bool) {
	jp.mu.Lock()
	defer jp.mu.Unlock()
	jp.running = running
}

func (jp *JobProcessor) record(expired int, err error) {
	jp.mu.Lock()
	defer jp.mu.Unlock()
	jp.lastRun = time.Now().UTC()
	jp.lastExpired = expired
	jp.lastError = ""
	if err != nil {
		jp.lastError = err.Error()
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.Lock()
	defer jp.mu.Unlock()

	status := map[string]interface{}{
		"running":               jp.running,
		"expiry_check_interval": jp.config.ExpiryCheckInterval.String(),
		"batch_size":            jp.config.BatchSize,
		"last_expired":          jp.lastExpired,
	}
	if !jp.lastRun.IsZero() {
		status["last_run"] = jp.lastRun
	}
	if jp.lastError != "" {
		status["last_error"] = jp.lastError
	}
	return status
}
