package reservations

import (
	"context"
	"testing"
	"time"
)

func TestJobProcessorSweepsLapsedOptions(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	r := h.store(t, StatusPending)
	if err := h.repo.UpdateFields(ctx, r.ID, map[string]interface{}{"option_expires_at": testNow.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}

	jp := NewJobProcessor(h.svc, &JobConfig{ExpiryCheckInterval: time.Hour, BatchSize: 10})
	if n := jp.processExpiredOptions(ctx); n != 1 {
		t.Fatalf("expected one option cancelled, got %d", n)
	}
	if n := jp.processExpiredOptions(ctx); n != 0 {
		t.Errorf("expected nothing left to sweep, got %d", n)
	}
}

func TestJobProcessorStopIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	jp := NewJobProcessor(h.svc, nil)
	if jp.config.ExpiryCheckInterval != time.Minute || jp.config.BatchSize != 100 {
		t.Errorf("unexpected defaults: %+v", jp.config)
	}

	jp.Start(context.Background())
	jp.Stop()
	jp.Stop()
}

func TestJobStatusReportsLastSweep(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	jp := NewJobProcessor(h.svc, &JobConfig{ExpiryCheckInterval: time.Hour, BatchSize: 5})
	status := jp.GetJobStatus()
	if status["running"] != false || status["batch_size"] != 5 || status["expiry_check_interval"] != "1h0m0s" {
		t.Errorf("unexpected idle status %v", status)
	}
	if _, ok := status["last_run"]; ok {
		t.Error("last_run must be absent before the first sweep")
	}

	r := h.store(t, StatusPending)
	if err := h.repo.UpdateFields(ctx, r.ID, map[string]interface{}{"option_expires_at": testNow.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	jp.processExpiredOptions(ctx)

	status = jp.GetJobStatus()
	if status["last_expired"] != 1 {
		t.Errorf("expected last_expired 1, got %v", status["last_expired"])
	}
	if _, ok := status["last_run"]; !ok {
		t.Error("expected last_run after a sweep")
	}
	if _, ok := status["last_error"]; ok {
		t.Errorf("unexpected last_error %v", status["last_error"])
	}
}
