package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/metrics"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// DefaultSchedule is the cron spec for the background scan.
const DefaultSchedule = "@every 1h"

// goalDeadlineWindow is how far ahead the scan warns about underfunded goals.
const goalDeadlineWindow = 30 * 24 * time.Hour

// Scheduler periodically scans budgets and goals and records alerts. It
// implements the lifecycle Service interface.
type Scheduler struct {
	users    storage.UserStore
	finance  storage.FinanceStore
	alerts   storage.AlertStore
	schedule string
	log      *logger.Logger
	now      func() time.Time

	cron *cron.Cron

	mu   sync.Mutex
	seen map[string]bool
}

// NewScheduler constructs an alert scheduler. An empty schedule uses
// DefaultSchedule.
func NewScheduler(users storage.UserStore, finance storage.FinanceStore, alerts storage.AlertStore, schedule string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("alerts")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		users:    users,
		finance:  finance,
		alerts:   alerts,
		schedule: schedule,
		log:      log,
		now:      time.Now,
		seen:     make(map[string]bool),
	}
}

// Name identifies the scheduler to the lifecycle manager.
func (s *Scheduler) Name() string { return "alerts" }

// Start runs an immediate scan and schedules the recurring one.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		scanCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Scan(scanCtx); err != nil {
			s.log.WithError(err).Error("alert scan failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	if err := s.Scan(ctx); err != nil {
		s.log.WithError(err).Warn("initial alert scan failed")
	}

	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("alert scheduler started")
	return nil
}

// Stop halts the recurring scan and waits for a running one to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Info("alert scheduler stopped")
	return nil
}

// Scan walks every user's budgets and goals and records new alerts. Each
// condition alerts once per subject until the process restarts.
func (s *Scheduler) Scan(ctx context.Context) error {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	currentMonth := now.Format("2006-01")

	for _, u := range users {
		budgets, err := s.finance.ListBudgets(ctx, u.ID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("budget listing failed")
			continue
		}
		for _, b := range budgets {
			if b.Month != currentMonth {
				continue
			}
			for category, limit := range b.Limits {
				spent := b.Spent[category]
				if limit > 0 && spent > limit {
					s.record(ctx, u.ID, alert.KindBudgetOvershoot,
						fmt.Sprintf("budget:%s:%s", b.Month, category),
						fmt.Sprintf("You have spent %.0f of your %.0f %s budget for %s.", spent, limit, category, b.Month))
				}
			}
		}

		goals, err := s.finance.ListGoals(ctx, u.ID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("goal listing failed")
			continue
		}
		for _, g := range goals {
			if g.Progress() >= 1 {
				continue
			}
			if until := g.TargetDate.Sub(now); until > 0 && until <= goalDeadlineWindow {
				s.record(ctx, u.ID, alert.KindGoalDeadline,
					"goal:"+g.ID,
					fmt.Sprintf("Goal %q is due on %s and is %.0f%% funded.", g.Name, g.TargetDate.Format("2006-01-02"), g.Progress()*100))
			}
		}
	}
	return nil
}

func (s *Scheduler) record(ctx context.Context, userID string, kind alert.Kind, subject, message string) {
	key := userID + "|" + string(kind) + "|" + subject

	s.mu.Lock()
	if s.seen[key] {
		s.mu.Unlock()
		return
	}
	s.seen[key] = true
	s.mu.Unlock()

	if _, err := s.alerts.CreateAlert(ctx, alert.Alert{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	}); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("alert write failed")
		s.mu.Lock()
		delete(s.seen, key)
		s.mu.Unlock()
		return
	}
	metrics.RecordAlert(string(kind))
}
