package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/model"
)

func TestParseInsightTextFencedJSON(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\"summary\": \"Stable week.\", \"recommendations\": [\"Keep walking daily\"]}\n```\nLet me know if you need more."

	payload, err := parseInsightText(text)
	require.NoError(t, err)
	assert.Equal(t, "Stable week.", payload.Summary)
	assert.Equal(t, []string{"Keep walking daily"}, payload.Recommendations)
}

func TestParseInsightTextBareJSON(t *testing.T) {
	payload, err := parseInsightText(`{"summary": "Improving.", "keyObservations": {"decreases": ["tremor"], "increases": [], "stable": []}}`)
	require.NoError(t, err)
	assert.Equal(t, "Improving.", payload.Summary)
	assert.Equal(t, []string{"tremor"}, payload.KeyObservations.Decreases)
}

func TestParseInsightTextEmbeddedJSON(t *testing.T) {
	payload, err := parseInsightText(`The result is {"summary": "OK."} as requested`)
	require.NoError(t, err)
	assert.Equal(t, "OK.", payload.Summary)
}

func TestParseInsightTextGarbage(t *testing.T) {
	_, err := parseInsightText("I could not analyze this data.")
	assert.Error(t, err)
}

func TestBuildPromptIncludesDataAndFormat(t *testing.T) {
	notes := "felt shaky in the morning"
	checkIns := []*model.CheckIn{
		{
			CheckInDate:     time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			TremorScore:     6,
			SleepScore:      4,
			MedicationTaken: model.MedicationPartially,
			Notes:           &notes,
		},
	}

	prompt := buildPrompt(checkIns, model.RangeLabel7Days)

	assert.Contains(t, prompt, "Last 7 days")
	assert.Contains(t, prompt, "Tremor Score: 6/10")
	assert.Contains(t, prompt, "felt shaky in the morning")
	assert.Contains(t, prompt, `"keyObservations"`)
	assert.Contains(t, prompt, "Statistical Summary")
}

func TestGenerateAgainstStubServer(t *testing.T) {
	reply := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{
					"text": "```json\n{\"summary\": \"Doing well.\"}\n```",
				}},
			},
		}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
	defer server.Close()

	generator := NewGeminiGenerator(config.InsightConfig{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	})

	payload, err := generator.Generate(context.Background(), []*model.CheckIn{{MedicationTaken: model.MedicationTaken}}, model.RangeLabelToday)
	require.NoError(t, err)
	assert.Equal(t, "Doing well.", payload.Summary)
}

func TestGenerateSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	generator := NewGeminiGenerator(config.InsightConfig{
		BaseURL: server.URL,
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	})

	_, err := generator.Generate(context.Background(), []*model.CheckIn{{MedicationTaken: model.MedicationTaken}}, model.RangeLabelToday)
	assert.Error(t, err)
}
