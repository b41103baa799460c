package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/llm"
	"statement_analyst/pkg/core/logger"
	"statement_analyst/pkg/core/store"
)

const balanceSheetCSV = `Item,Prior year,Current year
TOTAL ASSETS,1000,1200
CURRENT ASSETS,400,600
CURRENT LIABILITIES,200,300
`

type fixture struct {
	fake *llm.FakeProvider
	mux  *http.ServeMux
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	log := logger.Wrap(zap.New(core))

	fake := &llm.FakeProvider{Reply: "**Assets** grew."}
	sessions := store.NewSessionStore(time.Hour, conversation.Options{Providers: conversation.Static(fake), Logger: log})
	h := NewHandler(sessions, calc.NewCache(time.Minute), calc.DefaultMarkers(), 0, log)

	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{fake: fake, mux: mux, logs: logs}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) upload(t *testing.T, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.do(t, req)
}

func (f *fixture) uploadOK(t *testing.T) TableResponse {
	t.Helper()
	rec := f.upload(t, "bs.csv", balanceSheetCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestUploadDerivesTable(t *testing.T) {
	f := newFixture(t)
	resp := f.uploadOK(t)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "bs.csv", resp.FileName)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, []string{"CURRENT ASSETS", "400", "600", "50.00%", "40.00%", "50.00%"}, resp.Rows[1])
	require.NotNil(t, resp.CurrentAssetsGrowth)
	assert.InDelta(t, 50.0, *resp.CurrentAssetsGrowth, 1e-9)
	require.Len(t, resp.Metrics, 2)
	assert.Equal(t, "2.00 times", resp.Metrics[1].Value)
	assert.Equal(t, "0.00", resp.Metrics[1].Delta)
	assert.Equal(t, calc.Determined(2), resp.Liquidity.Prior)
	assert.Equal(t, calc.Determined(2), resp.Liquidity.Current)
}

func TestTableUndeterminableRatio(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "bs.csv", "Item,Prior,Current\nTOTAL ASSETS,1000,1200\nCURRENT ASSETS,400,600\nCURRENT LIABILITIES,0,300\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"prior":null`)

	var resp TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Liquidity.Prior.Determinable)
	assert.Equal(t, calc.Determined(2), resp.Liquidity.Current)
}

func TestUploadErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.upload(t, "bs.csv", "Item,Prior,Current\nCASH,1,2\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "schema", e.Kind)
	assert.Contains(t, e.Error, calc.ErrMissingTotalAssets)

	rec = f.upload(t, "bs.csv", "Item,Prior,Current,Extra\nTOTAL ASSETS,1,2,3\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.upload(t, "bs.pdf", "x")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/analysis/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSummaryThenChat(t *testing.T) {
	f := newFixture(t)
	id := f.uploadOK(t).SessionID

	chat := func(q string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(ChatRequest{SessionID: id, Question: q})
		return f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/chat", bytes.NewReader(body)))
	}

	rec := chat("too early")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/summary?session="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "**Assets** grew.", summary.Markdown)
	assert.Contains(t, summary.HTML, "<strong>Assets</strong>")

	rec = chat("What about liquidity?")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "**Assets** grew.", resp.Reply)
	require.Len(t, resp.Transcript, 2)

	f.fake.Err = &llm.APIError{Provider: "fake", Status: 503, Err: errors.New("overloaded")}
	rec = chat("again?")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "api", decodeError(t, rec).Kind)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/analysis/transcript?session="+id, nil))
	var tr TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.True(t, tr.Activated)
	require.Len(t, tr.Turns, 4)
	assert.Contains(t, tr.Turns[3].Content, "overloaded")

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/clear?session="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.Empty(t, tr.Turns)
}

func TestSummaryRenderFailure(t *testing.T) {
	orig := renderHTML
	renderHTML = func(string) (string, error) { return "", errors.New("MARKDOWN_RENDER_ERROR: boom") }
	t.Cleanup(func() { renderHTML = orig })

	f := newFixture(t)
	id := f.uploadOK(t).SessionID

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/summary?session="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "**Assets** grew.", summary.Markdown)
	assert.Empty(t, summary.HTML)

	entries := f.logs.FilterMessage("markdown rendering failed").All()
	require.Len(t, entries, 1)
	details, ok := entries[0].ContextMap()["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, id, details["session"])
}

func TestSummaryMissingCredential(t *testing.T) {
	f := newFixture(t)
	id := f.uploadOK(t).SessionID
	f.fake.NoCredential = true

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/summary?session="+id, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "credential", decodeError(t, rec).Kind)
	assert.Equal(t, 1, f.logs.FilterMessage("summary failed").Len())
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/analysis/table?session=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/analysis/table", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStream(t *testing.T) {
	f := newFixture(t)
	id := f.uploadOK(t).SessionID
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/analysis/summary?session="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	f.fake.Reply = ""
	f.fake.Fragments = []string{"Ratio ", "is 2.00."}
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/analysis/chat-stream?session="+id+"&q=ratio", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []StreamEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 4)
	assert.Equal(t, "init", events[0].Type)
	assert.Equal(t, StreamEvent{Type: "delta", Text: "Ratio "}, events[1])
	assert.Equal(t, StreamEvent{Type: "delta", Text: "Ratio is 2.00."}, events[2])
	assert.Equal(t, StreamEvent{Type: "done", Text: "Ratio is 2.00."}, events[3])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&calc.SchemaError{Reason: "x"}, http.StatusUnprocessableEntity},
		{&llm.CredentialError{Provider: "gemini"}, http.StatusServiceUnavailable},
		{&llm.APIError{Provider: "gemini", Err: errors.New("x")}, http.StatusBadGateway},
		{conversation.ErrEmptyQuestion, http.StatusBadRequest},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := StatusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}
