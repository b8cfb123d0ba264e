// Package insights turns computed analytics into a short written narrative
// using a Gemini model.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-analytics/internal/analytics"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// Input is the engine output a narrative is written about.
type Input struct {
	Period             analytics.PeriodSummary          `json:"period"`
	Subscriptions      []analytics.DetectedSubscription `json:"subscriptions"`
	SubscriptionTotals analytics.SubscriptionTotals     `json:"subscription_totals"`
	CashFlow           []analytics.MonthlyBucket        `json:"cash_flow"`
	Forecast           analytics.ForecastResult         `json:"forecast"`
	Equity             analytics.EquitySnapshot         `json:"equity"`
}

// Narrative is the model's commentary on a report.
type Narrative struct {
	Headline    string   `json:"headline"`
	Highlights  []string `json:"highlights"`
	Suggestions []string `json:"suggestions"`
}

// Narrator writes a narrative for a set of analytics results.
type Narrator interface {
	Narrate(ctx context.Context, in Input) (*Narrative, error)
}

// GeminiNarrator is a Narrator backed by the Gemini API.
type GeminiNarrator struct {
	client *genai.Client
	model  string
}

// NewGeminiNarrator creates a Gemini client using credentials from the
// environment. An empty model selects DefaultModelName.
func NewGeminiNarrator(ctx context.Context, model string) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiNarrator: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiNarrator{client: client, model: model}, nil
}

// Narrate sends the figures to the model and parses its JSON answer.
func (n *GeminiNarrator) Narrate(ctx context.Context, in Input) (*Narrative, error) {
	prompt, err := buildPrompt(in)
	if err != nil {
		return nil, fmt.Errorf("Narrate: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := n.client.Models.GenerateContent(ctx, n.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Narrate: generate content: %w", err)
	}

	narrative, err := parseNarrative(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("Narrate: %w", err)
	}
	return narrative, nil
}

func parseNarrative(raw string) (*Narrative, error) {
	clean := cleanModelJSON(raw)

	var n Narrative
	if err := json.Unmarshal([]byte(clean), &n); err != nil {
		return nil, fmt.Errorf("parseNarrative: unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	if strings.TrimSpace(n.Headline) == "" {
		return nil, fmt.Errorf("parseNarrative: missing headline")
	}
	if n.Highlights == nil {
		n.Highlights = []string{}
	}
	if n.Suggestions == nil {
		n.Suggestions = []string{}
	}
	return &n, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line.
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
