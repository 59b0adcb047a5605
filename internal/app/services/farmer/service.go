package farmer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/farm"
	"github.com/jarvisfi/jarvisfi/internal/cache"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

const weatherCacheTTL = 30 * time.Minute

// schemes is the built-in catalog of farm credit schemes.
var schemes = []farm.Scheme{
	{
		ID:              "kcc",
		Name:            "Kisan Credit Card",
		Description:     "Short-term crop loan with interest subvention for timely repayment.",
		MaxAmount:       300000,
		InterestPercent: 4,
		MinLandAcres:    0.5,
	},
	{
		ID:              "aif",
		Name:            "Agriculture Infrastructure Fund",
		Description:     "Medium-term credit for post-harvest infrastructure and community assets.",
		MaxAmount:       20000000,
		InterestPercent: 6,
		MinLandAcres:    1,
	},
	{
		ID:              "shg",
		Name:            "Self Help Group Linkage",
		Description:     "Group-backed micro loan for small and marginal farmers.",
		MaxAmount:       100000,
		InterestPercent: 7,
		MinLandAcres:    0,
		MaxIncome:       200000,
	},
	{
		ID:              "dairy",
		Name:            "Dairy Entrepreneurship Scheme",
		Description:     "Term loan for dairy units with capital subsidy.",
		MaxAmount:       700000,
		InterestPercent: 8.5,
		MinLandAcres:    0.25,
	},
}

// Service provides scheme discovery, loan eligibility, and weather-based
// advisories for farmers.
type Service struct {
	weather WeatherFetcher
	cache   cache.Cache
	log     *logger.Logger
}

// New constructs a farmer service. weather may be nil; advisories then
// report Available=false.
func New(weather WeatherFetcher, c cache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("farmer")
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{weather: weather, cache: c, log: log}
}

// Schemes returns the scheme catalog.
func (s *Service) Schemes() []farm.Scheme {
	out := make([]farm.Scheme, len(schemes))
	copy(out, schemes)
	return out
}

// LoanEligibility matches a request against every scheme and computes the
// repayment for eligible ones.
func (s *Service) LoanEligibility(req farm.LoanRequest) ([]farm.LoanOffer, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if req.TermMonths <= 0 {
		req.TermMonths = 12
	}
	if req.LandAcres < 0 || req.AnnualIncome < 0 {
		return nil, fmt.Errorf("land_acres and annual_income must be non-negative")
	}

	offers := make([]farm.LoanOffer, 0, len(schemes))
	for _, scheme := range schemes {
		offer := farm.LoanOffer{Scheme: scheme}
		switch {
		case req.Amount > scheme.MaxAmount:
			offer.Reason = fmt.Sprintf("amount exceeds scheme cap of %.0f", scheme.MaxAmount)
		case req.LandAcres < scheme.MinLandAcres:
			offer.Reason = fmt.Sprintf("requires at least %.2f acres", scheme.MinLandAcres)
		case scheme.MaxIncome > 0 && req.AnnualIncome > scheme.MaxIncome:
			offer.Reason = fmt.Sprintf("annual income above %.0f cap", scheme.MaxIncome)
		default:
			offer.Eligible = true
			payment, interest := amortize(req.Amount, scheme.InterestPercent, req.TermMonths)
			offer.MonthlyPayment = payment
			offer.TotalInterest = interest
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func amortize(principal, annualRate float64, termMonths int) (monthly, totalInterest float64) {
	if annualRate == 0 {
		monthly = principal / float64(termMonths)
		return math.Round(monthly*100) / 100, 0
	}
	i := annualRate / 100 / 12
	factor := math.Pow(1+i, float64(termMonths))
	monthly = principal * i * factor / (factor - 1)
	total := monthly * float64(termMonths)
	return math.Round(monthly*100) / 100, math.Round((total-principal)*100) / 100
}

// Advisory returns weather-based guidance for a location. Results are cached
// to spare the upstream provider.
func (s *Service) Advisory(ctx context.Context, location string) (farm.Advisory, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return farm.Advisory{}, fmt.Errorf("location is required")
	}

	if s.weather == nil {
		return farm.Advisory{
			Location:  location,
			Guidance:  "Weather data is unavailable. Consult your local agriculture office before sowing or irrigation decisions.",
			Available: false,
		}, nil
	}

	key := "weather:" + strings.ToLower(location)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if adv, err := decodeAdvisory(cached); err == nil {
			return adv, nil
		}
	}

	obs, err := s.weather.Fetch(ctx, location)
	if err != nil {
		s.log.WithError(err).WithField("location", location).Warn("weather fetch failed")
		return farm.Advisory{
			Location:  location,
			Guidance:  "Weather data is temporarily unavailable. Try again shortly.",
			Available: false,
		}, nil
	}

	adv := farm.Advisory{
		Location:    location,
		TempCelsius: obs.TempCelsius,
		Humidity:    obs.Humidity,
		Condition:   obs.Condition,
		Guidance:    guidance(obs),
		Available:   true,
	}

	if encoded, err := encodeAdvisory(adv); err == nil {
		if err := s.cache.Set(ctx, key, encoded, weatherCacheTTL); err != nil {
			s.log.WithError(err).Debug("weather cache write failed")
		}
	}
	return adv, nil
}

func guidance(obs Observation) string {
	condition := strings.ToLower(obs.Condition)
	switch {
	case strings.Contains(condition, "rain") || strings.Contains(condition, "storm"):
		return "Rain expected. Delay pesticide spraying and ensure field drainage is clear."
	case obs.TempCelsius >= 38:
		return "High heat. Irrigate in the early morning or evening and provide shade for livestock."
	case obs.TempCelsius <= 8:
		return "Cold conditions. Protect seedlings with mulch and delay transplanting."
	case obs.Humidity >= 85:
		return "High humidity favors fungal disease. Inspect crops and ventilate stored grain."
	default:
		return "Conditions are favorable for routine field work and irrigation as scheduled."
	}
}
