package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"causal-insights-go/internal/logger"
	"causal-insights-go/internal/types"
)

// Load reads transcripts from the corpus workbook. Columns are detected by
// header heuristics so ad-hoc exports keep working: a transcript id column,
// a conversation/transcript text column, and optionally outcome, call type
// and city columns.
func Load(path string) ([]types.Transcript, error) {
	log := logger.ForComponent("dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	idIdx := -1
	textIdx := -1
	outcomeIdx := -1
	typeIdx := -1
	cityIdx := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case idIdx == -1 && (strings.Contains(l, "transcript id") || strings.Contains(l, "call id") || l == "id"):
			idIdx = i
		case textIdx == -1 && (strings.Contains(l, "transcript") || strings.Contains(l, "conversation") || strings.Contains(l, "text")):
			textIdx = i
		case outcomeIdx == -1 && (strings.Contains(l, "outcome") || strings.Contains(l, "escalat") || strings.Contains(l, "resolution")):
			outcomeIdx = i
		case typeIdx == -1 && strings.Contains(l, "type"):
			typeIdx = i
		case cityIdx == -1 && strings.Contains(l, "city"):
			cityIdx = i
		}
	}
	if textIdx == -1 {
		return nil, fmt.Errorf("no transcript column detected")
	}
	log.WithFields(map[string]interface{}{
		"idIdx": idIdx, "textIdx": textIdx, "outcomeIdx": outcomeIdx,
	}).Info("detected corpus column indices")

	var out []types.Transcript
	for i, r := range rows {
		if i == 0 {
			continue
		}
		t := types.Transcript{}
		if idIdx >= 0 && idIdx < len(r) {
			t.TranscriptID = strings.TrimSpace(r[idIdx])
		}
		if t.TranscriptID == "" {
			t.TranscriptID = fmt.Sprintf("row-%d", i)
		}
		if typeIdx >= 0 && typeIdx < len(r) {
			t.CallType = strings.TrimSpace(r[typeIdx])
		}
		if cityIdx >= 0 && cityIdx < len(r) {
			t.City = strings.TrimSpace(r[cityIdx])
		}
		text := ""
		if textIdx < len(r) {
			text = r[textIdx]
		}
		t.Turns = ParseTurns(text)
		if len(t.Turns) == 0 {
			// skip empty conversation rows quietly
			continue
		}
		if outcomeIdx >= 0 && outcomeIdx < len(r) {
			t.Outcome = parseOutcome(r[outcomeIdx])
		}
		if t.Outcome == "" || t.Outcome == types.OutcomeUnknown {
			t.Outcome = LabelOutcome(text)
		}
		out = append(out, t)
	}
	log.WithField("transcripts", len(out)).Info("corpus loaded")
	return out, nil
}

// ParseTurns splits conversation text into speaker turns. Lines look like
// "Customer: I have been waiting for days" with a 1-based turn index.
// Continuation lines with no speaker prefix extend the previous turn.
func ParseTurns(text string) []types.Turn {
	var turns []types.Turn
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		speaker, rest, ok := splitSpeaker(line)
		if !ok {
			if len(turns) > 0 {
				turns[len(turns)-1].Text += " " + line
			}
			continue
		}
		turns = append(turns, types.Turn{
			Index:   len(turns) + 1,
			Speaker: speaker,
			Text:    rest,
		})
	}
	return turns
}

func splitSpeaker(line string) (speaker, rest string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	head := strings.ToLower(strings.TrimSpace(line[:idx]))
	switch {
	case strings.Contains(head, "customer") || strings.Contains(head, "caller") || strings.Contains(head, "seller"):
		speaker = "customer"
	case strings.Contains(head, "agent") || strings.Contains(head, "rep") || strings.Contains(head, "support"):
		speaker = "agent"
	default:
		return "", "", false
	}
	return speaker, strings.TrimSpace(line[idx+1:]), true
}

func parseOutcome(raw string) types.Outcome {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "escalated", "escalation", "yes", "1", "true":
		return types.OutcomeEscalated
	case "resolved", "resolution", "no", "0", "false":
		return types.OutcomeResolved
	default:
		return types.OutcomeUnknown
	}
}

// LabelOutcome is the fallback when the workbook carries no outcome column:
// transcripts that mention escalation handoffs are labelled escalated.
func LabelOutcome(text string) types.Outcome {
	lower := strings.ToLower(text)
	for _, marker := range []string{"supervisor", "manager", "escalate", "escalation", "formal complaint", "consumer court"} {
		if strings.Contains(lower, marker) {
			return types.OutcomeEscalated
		}
	}
	for _, marker := range []string{"resolved", "thank you for your help", "that works", "issue is fixed", "problem solved"} {
		if strings.Contains(lower, marker) {
			return types.OutcomeResolved
		}
	}
	return types.OutcomeUnknown
}
