package farm

// Scheme is a government or bank loan scheme for farmers.
type Scheme struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	MaxAmount       float64 `json:"max_amount"`
	InterestPercent float64 `json:"interest_percent"`
	MinLandAcres    float64 `json:"min_land_acres"`
	MaxIncome       float64 `json:"max_income"` // annual; 0 means no cap
}

// LoanRequest describes a farmer's situation for eligibility matching.
type LoanRequest struct {
	LandAcres    float64 `json:"land_acres"`
	AnnualIncome float64 `json:"annual_income"`
	Amount       float64 `json:"amount"`
	TermMonths   int     `json:"term_months"`
}

// LoanOffer is a scheme the farmer qualifies for, with the computed
// repayment.
type LoanOffer struct {
	Scheme         Scheme  `json:"scheme"`
	Eligible       bool    `json:"eligible"`
	Reason         string  `json:"reason,omitempty"`
	MonthlyPayment float64 `json:"monthly_payment,omitempty"`
	TotalInterest  float64 `json:"total_interest,omitempty"`
}

// Advisory is weather-based guidance for a location. Available is false when
// no weather provider is configured.
type Advisory struct {
	Location    string  `json:"location"`
	TempCelsius float64 `json:"temp_celsius"`
	Humidity    float64 `json:"humidity"`
	Condition   string  `json:"condition"`
	Guidance    string  `json:"guidance"`
	Available   bool    `json:"available"`
}
