// Package scheduler runs the periodic sweeps: auto-verification of stale
// documents and reconciliation of open payments against the gateway. Both
// jobs are idempotent, so an overlap with a manual trigger is harmless.
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"notaryapi/internal/config"
	"notaryapi/internal/service"
)

// Scheduler owns the cron instance and the services it drives.
type Scheduler struct {
	cron     *cron.Cron
	notarSvc service.NotarizationService
	paySvc   service.PaymentService
	cfg      config.SchedulerConfig
}

// New builds a Scheduler from the cron specs in config.
func New(notarSvc service.NotarizationService, paySvc service.PaymentService, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		notarSvc: notarSvc,
		paySvc:   paySvc,
		cfg:      cfg,
	}
}

// Start registers both jobs and launches the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.AutoVerifySpec, s.runAutoVerify); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ReconcileSpec, s.runReconcile); err != nil {
		return err
	}
	s.cron.Start()
	logJSON("info", "scheduler_started", map[string]any{
		"auto_verify_spec": s.cfg.AutoVerifySpec,
		"reconcile_spec":   s.cfg.ReconcileSpec,
	})
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runAutoVerify() {
	ctx := context.Background()
	moved, err := s.notarSvc.AutoVerify(ctx)
	if err != nil {
		logJSON("error", "auto_verify_failed", map[string]any{"error": err.Error()})
		return
	}
	logJSON("info", "auto_verify_done", map[string]any{"moved": moved})
}

func (s *Scheduler) runReconcile() {
	ctx := context.Background()
	stats, err := s.paySvc.ReconcileAll(ctx)
	if err != nil {
		logJSON("error", "payment_reconcile_failed", map[string]any{"error": err.Error()})
		return
	}
	logJSON("info", "payment_reconcile_done", map[string]any{
		"total":     stats.Total,
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
	})
}

func logJSON(level, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
