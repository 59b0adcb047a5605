package finance

import (
	"fmt"
	"math"
	"sort"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
)

// SIPResult is the outcome of a systematic investment plan projection.
type SIPResult struct {
	MonthlyAmount  float64 `json:"monthly_amount"`
	AnnualRate     float64 `json:"annual_rate"`
	Years          int     `json:"years"`
	Invested       float64 `json:"invested"`
	MaturityValue  float64 `json:"maturity_value"`
	WealthGained   float64 `json:"wealth_gained"`
}

// SIP projects the maturity value of a monthly investment compounded
// monthly at the given annual rate (percent).
func SIP(monthly, annualRate float64, years int) (SIPResult, error) {
	if monthly <= 0 {
		return SIPResult{}, fmt.Errorf("monthly amount must be positive")
	}
	if annualRate < 0 || years <= 0 {
		return SIPResult{}, fmt.Errorf("rate must be non-negative and years positive")
	}

	months := years * 12
	invested := monthly * float64(months)

	var maturity float64
	if annualRate == 0 {
		maturity = invested
	} else {
		i := annualRate / 100 / 12
		// Future value of an annuity due: payments at the start of each month.
		maturity = monthly * ((math.Pow(1+i, float64(months)) - 1) / i) * (1 + i)
	}

	return SIPResult{
		MonthlyAmount: monthly,
		AnnualRate:    annualRate,
		Years:         years,
		Invested:      round2(invested),
		MaturityValue: round2(maturity),
		WealthGained:  round2(maturity - invested),
	}, nil
}

// LumpsumResult is the outcome of a one-time investment projection.
type LumpsumResult struct {
	Principal     float64 `json:"principal"`
	AnnualRate    float64 `json:"annual_rate"`
	Years         int     `json:"years"`
	MaturityValue float64 `json:"maturity_value"`
	WealthGained  float64 `json:"wealth_gained"`
}

// Lumpsum projects a one-time investment compounded annually.
func Lumpsum(principal, annualRate float64, years int) (LumpsumResult, error) {
	if principal <= 0 {
		return LumpsumResult{}, fmt.Errorf("principal must be positive")
	}
	if annualRate < 0 || years <= 0 {
		return LumpsumResult{}, fmt.Errorf("rate must be non-negative and years positive")
	}

	maturity := principal * math.Pow(1+annualRate/100, float64(years))
	return LumpsumResult{
		Principal:     principal,
		AnnualRate:    annualRate,
		Years:         years,
		MaturityValue: round2(maturity),
		WealthGained:  round2(maturity - principal),
	}, nil
}

// EMIResult is the outcome of a loan repayment calculation.
type EMIResult struct {
	Principal     float64 `json:"principal"`
	AnnualRate    float64 `json:"annual_rate"`
	TermMonths    int     `json:"term_months"`
	MonthlyEMI    float64 `json:"monthly_emi"`
	TotalPayment  float64 `json:"total_payment"`
	TotalInterest float64 `json:"total_interest"`
}

// EMI computes the equated monthly installment for a loan.
func EMI(principal, annualRate float64, termMonths int) (EMIResult, error) {
	if principal <= 0 || termMonths <= 0 {
		return EMIResult{}, fmt.Errorf("principal and term must be positive")
	}
	if annualRate < 0 {
		return EMIResult{}, fmt.Errorf("rate must be non-negative")
	}

	var emi float64
	if annualRate == 0 {
		emi = principal / float64(termMonths)
	} else {
		i := annualRate / 100 / 12
		factor := math.Pow(1+i, float64(termMonths))
		emi = principal * i * factor / (factor - 1)
	}

	total := emi * float64(termMonths)
	return EMIResult{
		Principal:     principal,
		AnnualRate:    annualRate,
		TermMonths:    termMonths,
		MonthlyEMI:    round2(emi),
		TotalPayment:  round2(total),
		TotalInterest: round2(total - principal),
	}, nil
}

// RetirementResult is the outcome of a retirement corpus projection.
type RetirementResult struct {
	CurrentAge        int     `json:"current_age"`
	RetirementAge     int     `json:"retirement_age"`
	MonthlyExpenses   float64 `json:"monthly_expenses"`
	CorpusNeeded      float64 `json:"corpus_needed"`
	MonthlySIPNeeded  float64 `json:"monthly_sip_needed"`
	AssumedReturnRate float64 `json:"assumed_return_rate"`
	AssumedInflation  float64 `json:"assumed_inflation"`
}

// Retirement estimates the corpus needed at retirement and the monthly
// investment required to reach it. Expenses are inflated to retirement age
// and the corpus covers 25 years of post-retirement spending.
func Retirement(currentAge, retirementAge int, monthlyExpenses, annualReturn, inflation float64) (RetirementResult, error) {
	if currentAge <= 0 || retirementAge <= currentAge {
		return RetirementResult{}, fmt.Errorf("retirement age must be greater than current age")
	}
	if monthlyExpenses <= 0 {
		return RetirementResult{}, fmt.Errorf("monthly expenses must be positive")
	}
	if annualReturn <= 0 {
		annualReturn = 12
	}
	if inflation <= 0 {
		inflation = 6
	}

	yearsToRetire := retirementAge - currentAge
	inflatedMonthly := monthlyExpenses * math.Pow(1+inflation/100, float64(yearsToRetire))
	corpus := inflatedMonthly * 12 * 25

	i := annualReturn / 100 / 12
	months := yearsToRetire * 12
	sip := corpus * i / ((math.Pow(1+i, float64(months)) - 1) * (1 + i))

	return RetirementResult{
		CurrentAge:        currentAge,
		RetirementAge:     retirementAge,
		MonthlyExpenses:   monthlyExpenses,
		CorpusNeeded:      round2(corpus),
		MonthlySIPNeeded:  round2(sip),
		AssumedReturnRate: annualReturn,
		AssumedInflation:  inflation,
	}, nil
}

// EmergencyFundResult recommends an emergency fund size.
type EmergencyFundResult struct {
	MonthlyExpenses float64 `json:"monthly_expenses"`
	Months          int     `json:"months"`
	Recommended     float64 `json:"recommended"`
	Current         float64 `json:"current"`
	Shortfall       float64 `json:"shortfall"`
}

// EmergencyFund recommends months-of-expenses coverage. Months defaults
// to 6 when zero.
func EmergencyFund(monthlyExpenses, current float64, months int) (EmergencyFundResult, error) {
	if monthlyExpenses <= 0 {
		return EmergencyFundResult{}, fmt.Errorf("monthly expenses must be positive")
	}
	if months <= 0 {
		months = 6
	}
	recommended := monthlyExpenses * float64(months)
	shortfall := recommended - current
	if shortfall < 0 {
		shortfall = 0
	}
	return EmergencyFundResult{
		MonthlyExpenses: monthlyExpenses,
		Months:          months,
		Recommended:     round2(recommended),
		Current:         current,
		Shortfall:       round2(shortfall),
	}, nil
}

// TaxResult compares the old and new Indian income tax regimes.
type TaxResult struct {
	AnnualIncome float64 `json:"annual_income"`
	OldRegimeTax float64 `json:"old_regime_tax"`
	NewRegimeTax float64 `json:"new_regime_tax"`
	Better       string  `json:"better"`
	Savings      float64 `json:"savings"`
}

type taxSlab struct {
	upTo float64 // 0 means no upper bound
	rate float64
}

var oldRegimeSlabs = []taxSlab{
	{upTo: 250000, rate: 0},
	{upTo: 500000, rate: 0.05},
	{upTo: 1000000, rate: 0.20},
	{upTo: 0, rate: 0.30},
}

var newRegimeSlabs = []taxSlab{
	{upTo: 300000, rate: 0},
	{upTo: 600000, rate: 0.05},
	{upTo: 900000, rate: 0.10},
	{upTo: 1200000, rate: 0.15},
	{upTo: 1500000, rate: 0.20},
	{upTo: 0, rate: 0.30},
}

// Tax computes liability under both regimes. Deductions apply only to the
// old regime. A 4% cess is added to both.
func Tax(annualIncome, deductions float64) (TaxResult, error) {
	if annualIncome <= 0 {
		return TaxResult{}, fmt.Errorf("annual income must be positive")
	}
	if deductions < 0 {
		deductions = 0
	}

	oldTaxable := annualIncome - deductions
	if oldTaxable < 0 {
		oldTaxable = 0
	}

	oldTax := slabTax(oldTaxable, oldRegimeSlabs) * 1.04
	newTax := slabTax(annualIncome, newRegimeSlabs) * 1.04

	better := "new"
	if oldTax < newTax {
		better = "old"
	}

	return TaxResult{
		AnnualIncome: annualIncome,
		OldRegimeTax: round2(oldTax),
		NewRegimeTax: round2(newTax),
		Better:       better,
		Savings:      round2(math.Abs(oldTax - newTax)),
	}, nil
}

func slabTax(income float64, slabs []taxSlab) float64 {
	var tax, prev float64
	for _, slab := range slabs {
		if slab.upTo == 0 || income <= slab.upTo {
			tax += (income - prev) * slab.rate
			return tax
		}
		tax += (slab.upTo - prev) * slab.rate
		prev = slab.upTo
	}
	return tax
}

// BudgetPlan is a 50/30/20 allocation of monthly income.
type BudgetPlan struct {
	MonthlyIncome float64 `json:"monthly_income"`
	Needs         float64 `json:"needs"`
	Wants         float64 `json:"wants"`
	Savings       float64 `json:"savings"`
}

// BudgetRule splits income into needs, wants, and savings per the
// 50/30/20 rule.
func BudgetRule(monthlyIncome float64) (BudgetPlan, error) {
	if monthlyIncome <= 0 {
		return BudgetPlan{}, fmt.Errorf("monthly income must be positive")
	}
	return BudgetPlan{
		MonthlyIncome: monthlyIncome,
		Needs:         round2(monthlyIncome * 0.5),
		Wants:         round2(monthlyIncome * 0.3),
		Savings:       round2(monthlyIncome * 0.2),
	}, nil
}

// PayoffStep is one debt's position in the payoff plan.
type PayoffStep struct {
	Name          string  `json:"name"`
	Order         int     `json:"order"`
	Months        int     `json:"months"`
	TotalInterest float64 `json:"total_interest"`
}

// PayoffPlan is an avalanche-ordered debt repayment schedule.
type PayoffPlan struct {
	MonthlyBudget float64      `json:"monthly_budget"`
	Steps         []PayoffStep `json:"steps"`
	TotalMonths   int          `json:"total_months"`
	TotalInterest float64      `json:"total_interest"`
}

// DebtPayoff simulates paying off debts highest-rate first (avalanche).
// The monthly budget must cover every minimum payment; the surplus goes to
// the debt with the highest rate.
func DebtPayoff(debts []finance.Debt, monthlyBudget float64) (PayoffPlan, error) {
	if len(debts) == 0 {
		return PayoffPlan{}, fmt.Errorf("at least one debt is required")
	}

	var minTotal float64
	for _, d := range debts {
		if d.Principal <= 0 || d.MinPayment <= 0 {
			return PayoffPlan{}, fmt.Errorf("debt %q needs positive principal and minimum payment", d.Name)
		}
		minTotal += d.MinPayment
	}
	if monthlyBudget < minTotal {
		return PayoffPlan{}, fmt.Errorf("monthly budget %.2f is below the %.2f needed for minimum payments", monthlyBudget, minTotal)
	}

	// Avalanche order: highest rate first.
	order := make([]finance.Debt, len(debts))
	copy(order, debts)
	sort.SliceStable(order, func(i, j int) bool { return order[i].AnnualRate > order[j].AnnualRate })

	balances := make([]float64, len(order))
	interest := make([]float64, len(order))
	doneAt := make([]int, len(order))
	for i, d := range order {
		balances[i] = d.Principal
	}

	const maxMonths = 1200
	month := 0
	for month < maxMonths {
		remaining := false
		for _, b := range balances {
			if b > 0.005 {
				remaining = true
				break
			}
		}
		if !remaining {
			break
		}
		month++

		budget := monthlyBudget

		// Accrue interest and pay minimums.
		for i := range order {
			if balances[i] <= 0.005 {
				continue
			}
			accrued := balances[i] * order[i].AnnualRate / 100 / 12
			balances[i] += accrued
			interest[i] += accrued

			pay := order[i].MinPayment
			if pay > balances[i] {
				pay = balances[i]
			}
			balances[i] -= pay
			budget -= pay
		}

		// Surplus attacks the highest-rate open balance.
		for i := range order {
			if budget <= 0 {
				break
			}
			if balances[i] <= 0.005 {
				continue
			}
			pay := budget
			if pay > balances[i] {
				pay = balances[i]
			}
			balances[i] -= pay
			budget -= pay
		}

		for i := range order {
			if balances[i] <= 0.005 && doneAt[i] == 0 {
				doneAt[i] = month
			}
		}
	}

	plan := PayoffPlan{MonthlyBudget: monthlyBudget}
	var totalInterest float64
	for i, d := range order {
		months := doneAt[i]
		if months == 0 {
			months = maxMonths
		}
		plan.Steps = append(plan.Steps, PayoffStep{
			Name:          d.Name,
			Order:         i + 1,
			Months:        months,
			TotalInterest: round2(interest[i]),
		})
		if months > plan.TotalMonths {
			plan.TotalMonths = months
		}
		totalInterest += interest[i]
	}
	plan.TotalInterest = round2(totalInterest)
	return plan, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
