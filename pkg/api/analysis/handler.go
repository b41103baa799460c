// Package analysis provides HTTP API handlers for statement upload, derived
// metrics, AI commentary and follow-up chat.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/ingest"
	"statement_analyst/pkg/core/llm"
	"statement_analyst/pkg/core/logger"
	"statement_analyst/pkg/core/report"
	"statement_analyst/pkg/core/store"
	"statement_analyst/pkg/core/utils"
)

// renderHTML is swapped in tests.
var renderHTML = utils.RenderHTML

// Handler holds dependencies for analysis endpoints
type Handler struct {
	Sessions      *store.SessionStore
	Analyses      *calc.Cache
	Markers       calc.Markers
	MaxUploadSize int64
	Log           *logger.Logger
}

func NewHandler(sessions *store.SessionStore, analyses *calc.Cache, markers calc.Markers, maxUpload int64, log *logger.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Sessions:      sessions,
		Analyses:      analyses,
		Markers:       markers,
		MaxUploadSize: maxUpload,
		Log:           log,
	}
}

// Register mounts every analysis endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analysis/upload", h.HandleUpload)
	mux.HandleFunc("/api/analysis/table", h.HandleTable)
	mux.HandleFunc("/api/analysis/summary", h.HandleSummary)
	mux.HandleFunc("/api/analysis/chat", h.HandleChat)
	mux.HandleFunc("/api/analysis/chat-stream", h.HandleChatStream)
	mux.HandleFunc("/api/analysis/transcript", h.HandleTranscript)
	mux.HandleFunc("/api/analysis/clear", h.HandleClear)
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type TableResponse struct {
	SessionID           string               `json:"session_id"`
	FileName            string               `json:"file_name"`
	Columns             []string             `json:"columns"`
	Rows                [][]string           `json:"rows"`
	Items               []calc.LineItem      `json:"items"`
	CurrentAssetsGrowth *float64             `json:"current_assets_growth"`
	Liquidity           calc.Liquidity       `json:"liquidity"`
	Metrics             []report.Metric      `json:"metrics"`
	Warnings            []calc.LookupWarning `json:"warnings"`
}

type SummaryResponse struct {
	SessionID string `json:"session_id"`
	Markdown  string `json:"markdown"`
	HTML      string `json:"html"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type ChatResponse struct {
	Reply      string        `json:"reply"`
	HTML       string        `json:"html"`
	Transcript []llm.Message `json:"transcript"`
}

type TranscriptResponse struct {
	SessionID string        `json:"session_id"`
	Activated bool          `json:"activated"`
	Summary   string        `json:"summary,omitempty"`
	Turns     []llm.Message `json:"turns"`
}

// HandleUpload accepts a multipart "file" field, derives the statement and
// starts a new session. A new upload never reuses an old transcript.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid multipart upload: " + err.Error(), Kind: "usage"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing form field \"file\"", Kind: "usage"})
		return
	}
	defer file.Close()

	stmt, err := ingest.Read(file, header.Filename)
	if err != nil {
		h.fail(w, "upload", err)
		return
	}
	a, err := h.Analyses.Analyze(stmt.Rows, h.Markers)
	if err != nil {
		h.fail(w, "upload", err)
		return
	}

	session := h.Sessions.Create(header.Filename, a)
	h.Log.Info("api.analysis", "statement uploaded", map[string]interface{}{
		"session": session.ID, "file": header.Filename, "rows": a.Table.Len(),
		"warnings": len(session.Warnings()),
	})
	writeJSON(w, http.StatusCreated, tableResponse(session))
}

func (h *Handler) HandleTable(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	session, ok := h.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(session))
}

// HandleSummary requests the one-shot commentary and activates chat.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	session, ok := h.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}

	text, err := session.Summarize(r.Context())
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{SessionID: session.ID, Markdown: text, HTML: h.html(session.ID, text)})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Kind: "usage"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.URL.Query().Get("session")
	}
	session, ok := h.session(w, req.SessionID)
	if !ok {
		return
	}

	reply, err := session.Ask(r.Context(), req.Question)
	if err != nil {
		h.fail(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply, HTML: h.html(session.ID, reply), Transcript: session.Transcript()})
}

func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	session, ok := h.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{
		SessionID: session.ID,
		Activated: session.Activated(),
		Summary:   session.Summary(),
		Turns:     session.Transcript(),
	})
}

// HandleClear empties the chat history of a session.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	session, ok := h.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}
	session.Reset()
	writeJSON(w, http.StatusOK, TranscriptResponse{
		SessionID: session.ID,
		Activated: session.Activated(),
		Summary:   session.Summary(),
		Turns:     session.Transcript(),
	})
}

func (h *Handler) session(w http.ResponseWriter, id string) (*conversation.Session, bool) {
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing session id", Kind: "usage"})
		return nil, false
	}
	session, ok := h.Sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("session %s not found", id), Kind: "usage"})
		return nil, false
	}
	return session, true
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	status, kind := StatusFor(err)
	h.Log.Warn("api.analysis", action+" failed", map[string]interface{}{
		"status": status, "kind": kind, "error": err.Error(),
	})
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

// html renders model markdown for display. A rendering failure is logged and
// yields an empty string; callers still return the markdown.
func (h *Handler) html(sessionID, markdown string) string {
	out, err := renderHTML(markdown)
	if err != nil {
		h.Log.Warn("api.analysis", "markdown rendering failed", map[string]interface{}{
			"session": sessionID, "error": err.Error(),
		})
		return ""
	}
	return out
}

// StatusFor maps an error onto an HTTP status and error kind.
func StatusFor(err error) (int, string) {
	if errors.Is(err, ingest.ErrUnsupportedFormat) {
		return http.StatusUnsupportedMediaType, string(conversation.KindUsage)
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, string(conversation.KindUsage)
	}

	kind := conversation.Classify(err)
	switch kind {
	case conversation.KindSchema:
		return http.StatusUnprocessableEntity, string(kind)
	case conversation.KindCredential:
		return http.StatusServiceUnavailable, string(kind)
	case conversation.KindAPI:
		return http.StatusBadGateway, string(kind)
	case conversation.KindUsage:
		if errors.Is(err, conversation.ErrChatNotActivated) {
			return http.StatusConflict, string(kind)
		}
		return http.StatusBadRequest, string(kind)
	default:
		return http.StatusInternalServerError, string(kind)
	}
}

func tableResponse(s *conversation.Session) TableResponse {
	resp := TableResponse{
		SessionID: s.ID,
		FileName:  s.FileName,
		Columns:   report.StatementColumns,
		Rows:      report.StatementRows(s.Table()),
		Items:     s.Table().Rows(),
		Liquidity: s.Liquidity(),
		Metrics:   report.LiquidityMetrics(s.Liquidity()),
		Warnings:  s.Warnings(),
	}
	if g, ok := calc.CurrentAssetsGrowth(s.Table()); ok {
		resp.CurrentAssetsGrowth = &g
	}
	return resp
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", method+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Kind: "usage"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
