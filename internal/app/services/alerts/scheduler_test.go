package alerts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/alert"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/storage/memory"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("alerts-test")
	log.SetOutput(io.Discard)
	return log
}

func seedUser(t *testing.T, store *memory.Store) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Email:        "scan@test.dev",
		PasswordHash: "x",
		Name:         "Scan",
		Role:         "user",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestScanBudgetOvershoot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := seedUser(t, store)

	month := time.Now().Format("2006-01")
	if _, err := store.CreateBudget(ctx, finance.Budget{
		UserID:        u.ID,
		Month:         month,
		MonthlyIncome: 50000,
		Limits:        map[string]float64{"food": 10000, "rent": 20000},
		Spent:         map[string]float64{"food": 12000, "rent": 15000},
	}); err != nil {
		t.Fatalf("seed budget: %v", err)
	}

	sched := NewScheduler(store, store, store, "", quietLogger())
	if err := sched.Scan(ctx); err != nil {
		t.Fatalf("scan: %v", err)
	}

	alerts, err := store.ListAlerts(ctx, u.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Kind != alert.KindBudgetOvershoot {
		t.Fatalf("unexpected kind %q", alerts[0].Kind)
	}

	// A second scan must not duplicate the alert.
	if err := sched.Scan(ctx); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	alerts, _ = store.ListAlerts(ctx, u.ID)
	if len(alerts) != 1 {
		t.Fatalf("expected deduplicated alert, got %d", len(alerts))
	}
}

func TestScanGoalDeadline(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := seedUser(t, store)

	// Due soon and underfunded: alerts.
	if _, err := store.CreateGoal(ctx, finance.Goal{
		UserID:       u.ID,
		Name:         "phone",
		TargetAmount: 30000,
		SavedAmount:  10000,
		TargetDate:   time.Now().Add(10 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	// Due soon but fully funded: no alert.
	if _, err := store.CreateGoal(ctx, finance.Goal{
		UserID:       u.ID,
		Name:         "funded",
		TargetAmount: 5000,
		SavedAmount:  5000,
		TargetDate:   time.Now().Add(5 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	// Far in the future: no alert.
	if _, err := store.CreateGoal(ctx, finance.Goal{
		UserID:       u.ID,
		Name:         "house",
		TargetAmount: 5000000,
		SavedAmount:  0,
		TargetDate:   time.Now().AddDate(5, 0, 0),
	}); err != nil {
		t.Fatalf("seed goal: %v", err)
	}

	sched := NewScheduler(store, store, store, "", quietLogger())
	if err := sched.Scan(ctx); err != nil {
		t.Fatalf("scan: %v", err)
	}

	alerts, err := store.ListAlerts(ctx, u.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d: %+v", len(alerts), alerts)
	}
	if alerts[0].Kind != alert.KindGoalDeadline {
		t.Fatalf("unexpected kind %q", alerts[0].Kind)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	store := memory.New()
	sched := NewScheduler(store, store, store, "@every 1h", quietLogger())

	if sched.Name() != "alerts" {
		t.Fatalf("unexpected name %q", sched.Name())
	}

	ctx := context.Background()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sched.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	store := memory.New()
	sched := NewScheduler(store, store, store, "not-a-schedule", quietLogger())

	if err := sched.Start(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}
