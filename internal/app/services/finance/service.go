package finance

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Service manages budgets and savings goals and exposes the calculators.
type Service struct {
	store storage.FinanceStore
	log   *logger.Logger
}

// New constructs a finance service.
func New(store storage.FinanceStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("finance")
	}
	return &Service{store: store, log: log}
}

// CreateBudget records a monthly budget for a user.
func (s *Service) CreateBudget(ctx context.Context, userID, month string, monthlyIncome float64, limits map[string]float64) (finance.Budget, error) {
	if userID == "" {
		return finance.Budget{}, fmt.Errorf("user_id is required")
	}
	if !monthPattern.MatchString(month) {
		return finance.Budget{}, fmt.Errorf("month must be in YYYY-MM format")
	}
	if monthlyIncome <= 0 {
		return finance.Budget{}, fmt.Errorf("monthly_income must be positive")
	}
	for category, limit := range limits {
		if limit < 0 {
			return finance.Budget{}, fmt.Errorf("limit for %s must be non-negative", category)
		}
	}

	return s.store.CreateBudget(ctx, finance.Budget{
		UserID:        userID,
		Month:         month,
		MonthlyIncome: monthlyIncome,
		Limits:        limits,
		Spent:         map[string]float64{},
	})
}

// RecordSpending adds an amount to a budget category.
func (s *Service) RecordSpending(ctx context.Context, userID, budgetID, category string, amount float64) (finance.Budget, error) {
	if amount <= 0 {
		return finance.Budget{}, fmt.Errorf("amount must be positive")
	}
	b, err := s.ownedBudget(ctx, userID, budgetID)
	if err != nil {
		return finance.Budget{}, err
	}

	if b.Spent == nil {
		b.Spent = map[string]float64{}
	}
	b.Spent[category] += amount

	updated, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return finance.Budget{}, err
	}

	if limit, ok := updated.Limits[category]; ok && updated.Spent[category] > limit {
		s.log.WithFields(map[string]interface{}{
			"user_id":  userID,
			"category": category,
		}).Info("budget category overshot")
	}
	return updated, nil
}

// GetBudget returns a budget owned by userID.
func (s *Service) GetBudget(ctx context.Context, userID, budgetID string) (finance.Budget, error) {
	return s.ownedBudget(ctx, userID, budgetID)
}

// ListBudgets returns all budgets for a user, oldest month first.
func (s *Service) ListBudgets(ctx context.Context, userID string) ([]finance.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *Service) ownedBudget(ctx context.Context, userID, budgetID string) (finance.Budget, error) {
	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return finance.Budget{}, err
	}
	if b.UserID != userID {
		return finance.Budget{}, fmt.Errorf("budget %s not found", budgetID)
	}
	return b, nil
}

// CreateGoal records a savings goal.
func (s *Service) CreateGoal(ctx context.Context, userID, name string, target float64, targetDate time.Time) (finance.Goal, error) {
	if userID == "" || name == "" {
		return finance.Goal{}, fmt.Errorf("user_id and name are required")
	}
	if target <= 0 {
		return finance.Goal{}, fmt.Errorf("target_amount must be positive")
	}
	if !targetDate.After(time.Now()) {
		return finance.Goal{}, fmt.Errorf("target_date must be in the future")
	}

	return s.store.CreateGoal(ctx, finance.Goal{
		UserID:       userID,
		Name:         name,
		TargetAmount: target,
		TargetDate:   targetDate,
	})
}

// AddSavings adds to a goal's saved amount.
func (s *Service) AddSavings(ctx context.Context, userID, goalID string, amount float64) (finance.Goal, error) {
	if amount <= 0 {
		return finance.Goal{}, fmt.Errorf("amount must be positive")
	}
	g, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return finance.Goal{}, err
	}
	g.SavedAmount += amount
	return s.store.UpdateGoal(ctx, g)
}

// ListGoals returns a user's goals ordered by target date.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]finance.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

// DeleteGoal removes a goal owned by userID.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, goalID)
}

func (s *Service) ownedGoal(ctx context.Context, userID, goalID string) (finance.Goal, error) {
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return finance.Goal{}, err
	}
	if g.UserID != userID {
		return finance.Goal{}, fmt.Errorf("goal %s not found", goalID)
	}
	return g, nil
}
