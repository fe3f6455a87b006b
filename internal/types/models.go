package types

// Outcome is the terminal label of a transcript.
type Outcome string

const (
	OutcomeEscalated Outcome = "escalated"
	OutcomeResolved  Outcome = "resolved"
	OutcomeUnknown   Outcome = "unknown"
)

type Turn struct {
	Index   int    `json:"turn_index"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type Transcript struct {
	TranscriptID string  `json:"transcript_id"`
	CallType     string  `json:"call_type,omitempty"`
	City         string  `json:"city,omitempty"`
	Turns        []Turn  `json:"turns"`
	Outcome      Outcome `json:"outcome"`
}

// SignalOccurrence is one detected signal anchored to the turn it fired on.
// Produced by the keyword detector, consumed as-is by the causal core.
type SignalOccurrence struct {
	SignalType string  `json:"signal_type"`
	TurnIndex  int     `json:"turn_index"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text,omitempty"`
}
