package finance

import "time"

// Budget tracks category spending limits for one calendar month.
type Budget struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Month         string             `json:"month"` // YYYY-MM
	MonthlyIncome float64            `json:"monthly_income"`
	Limits        map[string]float64 `json:"limits"`
	Spent         map[string]float64 `json:"spent"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Goal is a savings goal with a target amount and date.
type Goal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"target_amount"`
	SavedAmount  float64   `json:"saved_amount"`
	TargetDate   time.Time `json:"target_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Progress returns the saved fraction of the target, capped at 1.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.SavedAmount / g.TargetAmount
	if p > 1 {
		return 1
	}
	return p
}

// Debt is an outstanding loan used by the payoff planner.
type Debt struct {
	Name       string  `json:"name"`
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annual_rate"` // percent
	MinPayment float64 `json:"min_payment"`
}
