// Package protocol defines the JSON messages exchanged with the handscope
// analysis service over HTTP and WebSocket.
package protocol

import (
	"time"

	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
)

// WebSocket message types.
const (
	TypeAnalyze  = "analyze"
	TypeAnalysis = "analysis"
	TypeError    = "error"
)

// AnalyzeRequest asks for the analysis of two hole cards.
type AnalyzeRequest struct {
	Cards []string `json:"cards"`
}

// AnalyzeResponse is one completed analysis.
type AnalyzeResponse struct {
	ID         string                `json:"id"`
	Key        poker.StartingHandKey `json:"key"`
	AnalyzedAt time.Time             `json:"analyzedAt"`
	Analysis   analysis.HandAnalysis `json:"analysis"`
}

// BatchRequest asks for many analyses at once.
type BatchRequest struct {
	Hands [][]string `json:"hands"`
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	Results []AnalyzeResponse `json:"results"`
}

// TableEntry is one starting-hand class and its strength.
type TableEntry struct {
	Key      poker.StartingHandKey `json:"key"`
	Strength poker.HandStrength    `json:"strength"`
}

// TableResponse lists classes in grid order.
type TableResponse struct {
	Hands  []TableEntry `json:"hands"`
	Size   int          `json:"size"`
	Combos int          `json:"combos"`
}

// NewTableResponse lists the classes of rng with their strengths.
func NewTableResponse(rng *analysis.Range) TableResponse {
	hands := rng.Hands()
	resp := TableResponse{
		Hands:  make([]TableEntry, len(hands)),
		Size:   rng.Size(),
		Combos: rng.Combos(),
	}
	for i, h := range hands {
		resp.Hands[i] = TableEntry{Key: h.Key, Strength: poker.StrengthOf(h.Key)}
	}
	return resp
}

// HistoryEntry is one recorded analysis.
type HistoryEntry struct {
	ID        string                `json:"id"`
	Key       poker.StartingHandKey `json:"key"`
	Cards     [2]poker.Card         `json:"cards"`
	Strength  poker.HandStrength    `json:"strength"`
	CreatedAt time.Time             `json:"createdAt"`
}

// HistoryResponse lists recent analyses, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse carries a request failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Message is a WebSocket frame. Inbound frames carry Cards; outbound frames
// carry either the embedded analysis or Error.
type Message struct {
	Type  string   `json:"type"`
	Cards []string `json:"cards,omitempty"`
	Error string   `json:"error,omitempty"`
	*AnalyzeResponse
}

// NewAnalyzeMessage builds an inbound analyze frame.
func NewAnalyzeMessage(card1, card2 string) Message {
	return Message{Type: TypeAnalyze, Cards: []string{card1, card2}}
}

// NewAnalysisMessage wraps a result for the wire.
func NewAnalysisMessage(resp *AnalyzeResponse) Message {
	return Message{Type: TypeAnalysis, AnalyzeResponse: resp}
}

// NewErrorMessage wraps an error for the wire.
func NewErrorMessage(err error) Message {
	return Message{Type: TypeError, Error: err.Error()}
}
