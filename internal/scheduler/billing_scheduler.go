package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
)

// MonthlyGenerator is the part of the billing service the job drives
type MonthlyGenerator interface {
	GenerateMonthly(ctx context.Context, year int, month time.Month, actor *service.Actor) (*service.RunSummary, error)
}

// BillingScheduler bills the previous month on a cron spec in the billing timezone
type BillingScheduler struct {
	cron      *cron.Cron
	spec      string
	loc       *time.Location
	generator MonthlyGenerator
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBillingScheduler builds the scheduler. spec is a standard 5 field
// cron expression evaluated in loc, e.g. "0 14 1 * *".
func NewBillingScheduler(generator MonthlyGenerator, spec string, loc *time.Location) *BillingScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{}
	return &BillingScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:      spec,
		loc:       loc,
		generator: generator,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the monthly job and starts the cron loop
func (s *BillingScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Info("Starting scheduled billing run", map[string]interface{}{
			"spec": s.spec,
		})
		// errors are logged inside RunNow
		_, _ = s.RunNow(s.ctx, nil)
	})
	if err != nil {
		logger.Error("Failed to add cron job for monthly billing", err, map[string]interface{}{
			"spec": s.spec,
		})
		return fmt.Errorf("add billing job: %w", err)
	}

	s.cron.Start()
	logger.Info("Billing scheduler started", map[string]interface{}{
		"spec":     s.spec,
		"timezone": s.loc.String(),
		"next_run": s.NextRun(),
	})
	return nil
}

// RunNow bills the month before now in the billing timezone. actor is nil
// for the scheduled run. The generator logs the run summary.
func (s *BillingScheduler) RunNow(ctx context.Context, actor *service.Actor) (*service.RunSummary, error) {
	year, month := billing.PreviousMonth(s.now(), s.loc)

	summary, err := s.generator.GenerateMonthly(ctx, year, month, actor)
	if err != nil {
		logger.Error("Monthly billing run failed", err, map[string]interface{}{
			"period": billing.PeriodKey(year, month),
		})
		return summary, err
	}
	return summary, nil
}

// NextRun is the next scheduled time, zero before Start
func (s *BillingScheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels a running job and waits for it to return
func (s *BillingScheduler) Stop() {
	logger.Info("Stopping billing scheduler...", nil)
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Info("Billing scheduler stopped", nil)
}

// cronLogger routes robfig/cron logs through pkg/logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, err, kvFields(keysAndValues))
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
