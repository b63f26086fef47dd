package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/pkg/circuitbreaker"
)

var rangeLabelTitles = map[string]string{
	model.RangeLabelToday:  "Today",
	model.RangeLabel7Days:  "Last 7 days",
	model.RangeLabel30Days: "Last 30 days",
	model.RangeLabel90Days: "Last 90 days",
}

var jsonFencePattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

type geminiGenerator struct {
	cfg    config.InsightConfig
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
}

// NewGeminiGenerator creates a Generator backed by the Gemini REST API.
func NewGeminiGenerator(cfg config.InsightConfig) Generator {
	return &geminiGenerator{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "insight-generator",
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		}),
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *geminiGenerator) Generate(ctx context.Context, checkIns []*model.CheckIn, rangeLabel string) (*model.InsightPayload, error) {
	if len(checkIns) == 0 {
		return nil, fmt.Errorf("no check-in data available for analysis")
	}

	prompt := buildPrompt(checkIns, rangeLabel)

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generator request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var payload *model.InsightPayload
	err = g.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("generator request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read generator response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("generator returned status %d", resp.StatusCode)
		}

		var out generateContentResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("failed to decode generator response: %w", err)
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("generator returned no candidates")
		}

		payload, err = parseInsightText(out.Candidates[0].Content.Parts[0].Text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// parseInsightText extracts the JSON payload from the model's reply, which
// may wrap it in a markdown fence.
func parseInsightText(text string) (*model.InsightPayload, error) {
	jsonText := text
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		jsonText = m[1]
	} else if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			jsonText = text[start : end+1]
		}
	}

	var payload model.InsightPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse insight payload: %w", err)
	}
	return &payload, nil
}

func buildPrompt(checkIns []*model.CheckIn, rangeLabel string) string {
	title := rangeLabelTitles[rangeLabel]
	if title == "" {
		title = rangeLabel
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a medical AI assistant specializing in Parkinson's disease symptom analysis. Analyze the following patient data and provide insights.\n\n")
	fmt.Fprintf(&b, "**Patient Context:**\n- Disease: Parkinson's Disease\n- Time Range: %s\n- Total Check-ins: %d\n\n", title, len(checkIns))
	b.WriteString("**Patient Data:**\n")
	b.WriteString(summarizeCheckIns(checkIns))
	b.WriteString(`
**Analysis Required:**
1. **Summary**: Provide a brief, empathetic summary (2-3 sentences) of the patient's overall condition during this period.
2. **Key Observations**: list symptoms that INCREASED, DECREASED, and remained STABLE.
3. **Medication Patterns**: adherence patterns, missed/partial days, correlation with symptom severity.
4. **Symptom Trends**: trends in tremors, stiffness, balance, sleep quality, and mood.
5. **Wearing-Off Patterns**: potential medication wearing-off patterns. CLEARLY LABEL this as an AI observation to be discussed with a healthcare provider.
6. **Recommendations**: 3-5 actionable, patient-friendly recommendations.

**Response Format (JSON):**
` + "```json" + `
{
  "summary": "...",
  "keyObservations": {"increases": [], "decreases": [], "stable": []},
  "medicationPatterns": "...",
  "symptomTrends": "...",
  "wearingOffPatterns": "AI Observation: ...",
  "recommendations": ["..."]
}
` + "```" + `

Provide ONLY the JSON response, no additional text.
`)
	return b.String()
}

func summarizeCheckIns(checkIns []*model.CheckIn) string {
	var b strings.Builder
	var tremor, stiffness, balance, sleep, mood int
	var taken, partial, missed int

	for i, c := range checkIns {
		fmt.Fprintf(&b, "\nDay %d (%s):\n", i+1, c.CheckInDate.Format("Jan 2, 2006"))
		fmt.Fprintf(&b, "- Tremor Score: %d/10\n", c.TremorScore)
		fmt.Fprintf(&b, "- Stiffness Score: %d/10\n", c.StiffnessScore)
		fmt.Fprintf(&b, "- Balance Score: %d/10\n", c.BalanceScore)
		fmt.Fprintf(&b, "- Sleep Quality: %d/10\n", c.SleepScore)
		fmt.Fprintf(&b, "- Mood Score: %d/10\n", c.MoodScore)
		fmt.Fprintf(&b, "- Medication Taken: %s\n", c.MedicationTaken)
		if c.Notes != nil && *c.Notes != "" {
			fmt.Fprintf(&b, "- Patient Notes: %s\n", *c.Notes)
		}

		tremor += c.TremorScore
		stiffness += c.StiffnessScore
		balance += c.BalanceScore
		sleep += c.SleepScore
		mood += c.MoodScore
		switch c.MedicationTaken {
		case model.MedicationTaken:
			taken++
		case model.MedicationPartially:
			partial++
		case model.MedicationMissed:
			missed++
		}
	}

	n := float64(len(checkIns))
	b.WriteString("\n**Statistical Summary:**\n")
	fmt.Fprintf(&b, "- Average Tremor: %.1f/10\n", float64(tremor)/n)
	fmt.Fprintf(&b, "- Average Stiffness: %.1f/10\n", float64(stiffness)/n)
	fmt.Fprintf(&b, "- Average Balance: %.1f/10\n", float64(balance)/n)
	fmt.Fprintf(&b, "- Average Sleep Quality: %.1f/10\n", float64(sleep)/n)
	fmt.Fprintf(&b, "- Average Mood: %.1f/10\n", float64(mood)/n)
	fmt.Fprintf(&b, "- Medication Adherence: %d taken, %d partial, %d missed\n", taken, partial, missed)

	return b.String()
}
