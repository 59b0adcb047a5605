package finance

import (
	"math"
	"testing"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
)

func approx(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("got %.2f, want %.2f (±%.2f)", got, want, tolerance)
	}
}

func TestSIP(t *testing.T) {
	res, err := SIP(5000, 12, 10)
	if err != nil {
		t.Fatalf("sip: %v", err)
	}
	if res.Invested != 600000 {
		t.Fatalf("expected 600000 invested, got %.2f", res.Invested)
	}
	// 5000/month at 12% for 10 years, annuity due.
	approx(t, res.MaturityValue, 1161695, 5000)
	approx(t, res.WealthGained, res.MaturityValue-res.Invested, 0.01)

	if _, err := SIP(0, 12, 10); err == nil {
		t.Fatalf("expected error for zero monthly amount")
	}
	if _, err := SIP(5000, 12, 0); err == nil {
		t.Fatalf("expected error for zero years")
	}
}

func TestSIPZeroRate(t *testing.T) {
	res, err := SIP(1000, 0, 2)
	if err != nil {
		t.Fatalf("sip: %v", err)
	}
	if res.MaturityValue != 24000 || res.WealthGained != 0 {
		t.Fatalf("unexpected zero-rate result: %+v", res)
	}
}

func TestLumpsum(t *testing.T) {
	res, err := Lumpsum(100000, 10, 5)
	if err != nil {
		t.Fatalf("lumpsum: %v", err)
	}
	approx(t, res.MaturityValue, 161051, 1)

	if _, err := Lumpsum(-1, 10, 5); err == nil {
		t.Fatalf("expected error for negative principal")
	}
}

func TestEMI(t *testing.T) {
	res, err := EMI(1000000, 8.5, 240)
	if err != nil {
		t.Fatalf("emi: %v", err)
	}
	// 10L home loan at 8.5% for 20 years is about 8678/month.
	approx(t, res.MonthlyEMI, 8678, 5)
	approx(t, res.TotalPayment, res.MonthlyEMI*240, 1)

	zero, err := EMI(12000, 0, 12)
	if err != nil {
		t.Fatalf("emi zero rate: %v", err)
	}
	if zero.MonthlyEMI != 1000 || zero.TotalInterest != 0 {
		t.Fatalf("unexpected zero-rate emi: %+v", zero)
	}
}

func TestRetirement(t *testing.T) {
	res, err := Retirement(30, 60, 50000, 12, 6)
	if err != nil {
		t.Fatalf("retirement: %v", err)
	}
	if res.CorpusNeeded <= 0 || res.MonthlySIPNeeded <= 0 {
		t.Fatalf("expected positive projections: %+v", res)
	}
	// Corpus covers 25 years of inflated expenses.
	inflated := 50000 * math.Pow(1.06, 30)
	approx(t, res.CorpusNeeded, inflated*12*25, 1000)

	if _, err := Retirement(60, 60, 50000, 12, 6); err == nil {
		t.Fatalf("expected error when retirement age not after current age")
	}
}

func TestEmergencyFund(t *testing.T) {
	res, err := EmergencyFund(40000, 100000, 0)
	if err != nil {
		t.Fatalf("emergency fund: %v", err)
	}
	if res.Months != 6 || res.Recommended != 240000 {
		t.Fatalf("unexpected defaults: %+v", res)
	}
	if res.Shortfall != 140000 {
		t.Fatalf("unexpected shortfall: %.2f", res.Shortfall)
	}

	covered, err := EmergencyFund(40000, 500000, 6)
	if err != nil {
		t.Fatalf("emergency fund: %v", err)
	}
	if covered.Shortfall != 0 {
		t.Fatalf("expected zero shortfall, got %.2f", covered.Shortfall)
	}
}

func TestTax(t *testing.T) {
	res, err := Tax(1200000, 150000)
	if err != nil {
		t.Fatalf("tax: %v", err)
	}
	// Old regime on 10.5L taxable: 12500 + 100000 + 15000 = 127500, +4% cess.
	approx(t, res.OldRegimeTax, 132600, 1)
	// New regime on 12L: 15000 + 30000 + 45000 = 90000, +4% cess.
	approx(t, res.NewRegimeTax, 93600, 1)
	if res.Better != "new" {
		t.Fatalf("expected new regime to win, got %q", res.Better)
	}
	approx(t, res.Savings, 39000, 1)
}

func TestTaxBelowExemption(t *testing.T) {
	res, err := Tax(240000, 0)
	if err != nil {
		t.Fatalf("tax: %v", err)
	}
	if res.OldRegimeTax != 0 || res.NewRegimeTax != 0 {
		t.Fatalf("expected zero tax below exemption: %+v", res)
	}
}

func TestBudgetRule(t *testing.T) {
	plan, err := BudgetRule(60000)
	if err != nil {
		t.Fatalf("budget rule: %v", err)
	}
	if plan.Needs != 30000 || plan.Wants != 18000 || plan.Savings != 12000 {
		t.Fatalf("unexpected split: %+v", plan)
	}
}

func TestDebtPayoffAvalanche(t *testing.T) {
	debts := []finance.Debt{
		{Name: "card", Principal: 50000, AnnualRate: 36, MinPayment: 2000},
		{Name: "personal", Principal: 200000, AnnualRate: 14, MinPayment: 5000},
	}
	plan, err := DebtPayoff(debts, 15000)
	if err != nil {
		t.Fatalf("debt payoff: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	// Highest rate first.
	if plan.Steps[0].Name != "card" {
		t.Fatalf("expected card first, got %q", plan.Steps[0].Name)
	}
	if plan.Steps[0].Months >= plan.Steps[1].Months {
		t.Fatalf("expected card to clear before personal loan: %+v", plan.Steps)
	}
	if plan.TotalMonths != plan.Steps[1].Months {
		t.Fatalf("total months should match the last debt")
	}
	if plan.TotalInterest <= 0 {
		t.Fatalf("expected positive total interest")
	}
}

func TestDebtPayoffRejectsInsufficientBudget(t *testing.T) {
	debts := []finance.Debt{{Name: "card", Principal: 1000, AnnualRate: 36, MinPayment: 500}}
	if _, err := DebtPayoff(debts, 100); err == nil {
		t.Fatalf("expected budget error")
	}
	if _, err := DebtPayoff(nil, 100); err == nil {
		t.Fatalf("expected empty debts error")
	}
}
