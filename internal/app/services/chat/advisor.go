package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Advisor produces an assistant reply for a user prompt. The production
// implementation calls an external model endpoint; the fallback is a local
// rule-based responder.
type Advisor interface {
	Advise(ctx context.Context, prompt, language string) (string, error)
}

// HTTPAdvisor calls a JSON endpoint of the shape
// POST {url} {"prompt": ..., "language": ...} -> {"reply": ...}.
type HTTPAdvisor struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPAdvisor builds an advisor for the given endpoint.
func NewHTTPAdvisor(url, apiKey string) *HTTPAdvisor {
	return &HTTPAdvisor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *HTTPAdvisor) Advise(ctx context.Context, prompt, language string) (string, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt, "language": language})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("advisor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	reply := gjson.GetBytes(payload, "reply").String()
	if reply == "" {
		return "", fmt.Errorf("advisor response missing reply")
	}
	return reply, nil
}

// RuleAdvisor is the offline fallback. It keyword-matches the prompt against
// a small set of personal-finance topics and answers deterministically.
type RuleAdvisor struct{}

type rule struct {
	keywords []string
	reply    string
}

var rules = []rule{
	{
		keywords: []string{"sip", "mutual fund", "invest"},
		reply:    "A systematic investment plan spreads purchases across market cycles. Start with an amount you can sustain for years and increase it with your income. Use the SIP calculator to project outcomes.",
	},
	{
		keywords: []string{"emi", "loan", "borrow"},
		reply:    "Keep total loan installments under 40% of monthly income. Compare offers on total interest, not just the monthly figure. The EMI calculator shows the full repayment cost.",
	},
	{
		keywords: []string{"budget", "spend", "expense"},
		reply:    "The 50/30/20 rule is a workable starting point: half of income for needs, 30% for wants, 20% for savings. Track spending by category for a month before tightening limits.",
	},
	{
		keywords: []string{"emergency", "fund"},
		reply:    "Hold at least six months of expenses in a liquid account before investing elsewhere. Build it gradually and replenish it first after any withdrawal.",
	},
	{
		keywords: []string{"tax", "regime", "deduction"},
		reply:    "Whether the old or new regime is cheaper depends on your deductions. Above roughly 3-3.5 lakh in deductions the old regime usually wins. The tax calculator compares both for your income.",
	},
	{
		keywords: []string{"retire", "pension", "corpus"},
		reply:    "Estimate your retirement corpus from today's expenses adjusted for inflation, then work backwards to a monthly investment. Starting ten years earlier roughly halves the required amount.",
	},
	{
		keywords: []string{"debt", "credit card", "payoff"},
		reply:    "Pay minimums on every debt and put every spare rupee at the highest-interest balance first. Credit card debt compounds fastest and should almost always go first.",
	},
}

func (RuleAdvisor) Advise(_ context.Context, prompt, _ string) (string, error) {
	lower := strings.ToLower(prompt)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply, nil
			}
		}
	}
	return "I can help with budgeting, investments, loans, taxes, and savings goals. Ask about a specific topic, or try one of the calculators.", nil
}
