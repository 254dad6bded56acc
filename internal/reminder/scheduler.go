package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs Sweep on a cron schedule.
type Scheduler struct {
	db       *gorm.DB
	schedule cron.Schedule
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

// NewScheduler parses expr and returns a scheduler for it.
func NewScheduler(db *gorm.DB, expr string, opts Options, log *zap.Logger) (*Scheduler, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("reminder: schedule %q: %w", expr, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{db: db, schedule: sched, opts: opts, log: log, now: time.Now}, nil
}

// Next returns the duration until the next scheduled sweep after from.
func (s *Scheduler) Next(from time.Time) time.Duration {
	d := s.schedule.Next(from).Sub(from)
	if d < 0 {
		return 0
	}
	return d
}

// RunOnce reloads the stage catalog and sweeps today's reminders.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)
	cat, err := stage.Load(db)
	if err != nil {
		return 0, err
	}
	return Sweep(db, cat, s.now(), s.opts)
}

// Run sweeps on every scheduled tick until ctx is cancelled. Sweep errors
// are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(s.Next(s.now()))
	defer timer.Stop()

	s.log.Info("reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return nil
		case <-timer.C:
			n, err := s.RunOnce(ctx)
			if err != nil {
				s.log.Error("reminder sweep failed", zap.Error(err))
			} else {
				s.log.Info("reminder sweep finished", zap.Int("notifications", n))
			}
			timer.Reset(s.Next(s.now()))
		}
	}
}
