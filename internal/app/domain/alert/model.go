package alert

import "time"

// Kind identifies what triggered an alert.
type Kind string

const (
	KindBudgetOvershoot Kind = "budget_overshoot"
	KindGoalDeadline    Kind = "goal_deadline"
)

// Alert is a notification produced by the background scan.
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
