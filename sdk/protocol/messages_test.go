package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handscope/sdk/analysis"
)

func TestAnalysisMessageFlattensResponse(t *testing.T) {
	a, err := analysis.AnalyzeStartingHand("As", "Ks")
	require.NoError(t, err)

	msg := NewAnalysisMessage(&AnalyzeResponse{
		ID:         "abc",
		Key:        a.Key,
		AnalyzedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Analysis:   a,
	})
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "analysis", raw["type"])
	assert.Equal(t, "abc", raw["id"])
	assert.Equal(t, "AKs", raw["key"])
	assert.Equal(t, "2026-01-02T03:04:05Z", raw["analyzedAt"])
	assert.NotContains(t, raw, "error")
	assert.NotContains(t, raw, "cards")

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.AnalyzeResponse)
	assert.Equal(t, a, decoded.Analysis)
}

func TestErrorMessage(t *testing.T) {
	data, err := json.Marshal(NewErrorMessage(errors.New("bad card")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error":"bad card"}`, string(data))
}

func TestAnalyzeMessage(t *testing.T) {
	data, err := json.Marshal(NewAnalyzeMessage("As", "Kd"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"analyze","cards":["As","Kd"]}`, string(data))
}

func TestNewTableResponse(t *testing.T) {
	rng, err := analysis.ParseRange("AKs,72o")
	require.NoError(t, err)

	table := NewTableResponse(rng)
	assert.Equal(t, 2, table.Size)
	assert.Equal(t, 16, table.Combos)
	require.Len(t, table.Hands, 2)
	assert.Equal(t, "AKs", string(table.Hands[0].Key))
	assert.Equal(t, "Extremely Strong", table.Hands[0].Strength.Label())
	assert.Equal(t, "Fold", table.Hands[1].Strength.Label())
}
