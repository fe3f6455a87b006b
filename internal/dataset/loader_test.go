package dataset

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"causal-insights-go/internal/types"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "corpus.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoad_DetectsColumnsByHeader(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Call Type", "City", "Outcome", "Transcript"},
		{"C100", "support", "Pune", "escalated", "Customer: I am fed up\nAgent: Please hold"},
		{"C101", "billing", "Jaipur", "resolved", "Customer: invoice question\nAgent: fixed it"},
	})

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "C100", got[0].TranscriptID)
	assert.Equal(t, "Pune", got[0].City)
	assert.Equal(t, types.OutcomeEscalated, got[0].Outcome)
	require.Len(t, got[0].Turns, 2)
	assert.Equal(t, "customer", got[0].Turns[0].Speaker)
	assert.Equal(t, "I am fed up", got[0].Turns[0].Text)
	assert.Equal(t, types.OutcomeResolved, got[1].Outcome)
}

func TestLoad_FallsBackToOutcomeHeuristic(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Transcript"},
		{"C1", "Customer: I want to speak to your supervisor right now\nAgent: One moment"},
		{"C2", "Customer: thanks, the issue is fixed\nAgent: glad to help"},
	})

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.OutcomeEscalated, got[0].Outcome)
	assert.Equal(t, types.OutcomeResolved, got[1].Outcome)
}

func TestLoad_SkipsEmptyConversations(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Transcript"},
		{"C1", ""},
		{"C2", "Customer: hello\nAgent: hi"},
	})

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C2", got[0].TranscriptID)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	path := writeWorkbook(t, [][]interface{}{{"Call ID", "Transcript"}})
	_, err = Load(path)
	assert.Error(t, err, "header-only workbook has no data rows")
}

func TestParseTurns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Turn
	}{
		{
			name: "alternating speakers",
			text: "Customer: my order is late\nAgent: let me check",
			want: []types.Turn{
				{Index: 1, Speaker: "customer", Text: "my order is late"},
				{Index: 2, Speaker: "agent", Text: "let me check"},
			},
		},
		{
			name: "continuation line extends previous turn",
			text: "Customer: my order is late\nand it was a gift",
			want: []types.Turn{
				{Index: 1, Speaker: "customer", Text: "my order is late and it was a gift"},
			},
		},
		{
			name: "speaker aliases",
			text: "Caller: hello\nSupport Rep: hi there",
			want: []types.Turn{
				{Index: 1, Speaker: "customer", Text: "hello"},
				{Index: 2, Speaker: "agent", Text: "hi there"},
			},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTurns(tt.text))
		})
	}
}

func TestLabelOutcome(t *testing.T) {
	assert.Equal(t, types.OutcomeEscalated, LabelOutcome("I demand a manager"))
	assert.Equal(t, types.OutcomeResolved, LabelOutcome("great, problem solved"))
	assert.Equal(t, types.OutcomeUnknown, LabelOutcome("hello there"))
}

func TestFetch_LocalPathPassesThrough(t *testing.T) {
	got, err := Fetch("/data/corpus.xlsx", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/data/corpus.xlsx", got)
}

func TestFetch_DownloadsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("workbook-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	got, err := Fetch(srv.URL, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "workbook-bytes", string(data))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok-now"))
	}))
	defer srv.Close()

	got, err := Fetch(srv.URL, t.TempDir())
	require.NoError(t, err)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "ok-now", string(data))
	assert.GreaterOrEqual(t, attempts, 3)
}

func TestFetch_PermanentOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(srv.URL, t.TempDir())
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx must not be retried")
}

func TestSummarize(t *testing.T) {
	corpus := []types.Transcript{
		{
			TranscriptID: "T1", Outcome: types.OutcomeEscalated, City: "Pune",
			Turns: []types.Turn{{Index: 1, Speaker: "customer", Text: "I am frustrated with this"}},
		},
		{
			TranscriptID: "T2", Outcome: types.OutcomeResolved, City: "Pune",
			Turns: []types.Turn{{Index: 1, Speaker: "customer", Text: "all good"}},
		},
	}
	s := Summarize(corpus)
	assert.Equal(t, 2, s.TotalTranscripts)
	assert.Equal(t, 1, s.EscalatedCount)
	assert.Equal(t, 1, s.ResolvedCount)
	assert.Equal(t, 0.5, s.EscalationRate)
	assert.Equal(t, 2, s.ByCity["Pune"])
	assert.Equal(t, 1, s.SignalCounts["customer_frustration"])
}
