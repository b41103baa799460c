package analysis

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamEvent is one SSE update of a streamed chat reply. Text is always the
// full reply received so far.
type StreamEvent struct {
	Type  string `json:"type"` // "init", "delta", "done", "error"
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// HandleChatStream streams a chat reply as server-sent events.
// GET /api/analysis/chat-stream?session=<id>&q=<question>
func (h *Handler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	// SSE headers - must be set before any write
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	session, ok := h.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}

	sendEvent := func(event StreamEvent) {
		data, _ := json.Marshal(event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	sendEvent(StreamEvent{Type: "init"})

	var final string
	for text, err := range session.AskStream(r.Context(), r.URL.Query().Get("q")) {
		if err != nil {
			_, kind := StatusFor(err)
			h.Log.Warn("api.analysis", "chat stream failed", map[string]interface{}{
				"session": session.ID, "kind": kind, "error": err.Error(),
			})
			sendEvent(StreamEvent{Type: "error", Text: text, Error: err.Error(), Kind: kind})
			return
		}
		final = text
		sendEvent(StreamEvent{Type: "delta", Text: text})
	}
	sendEvent(StreamEvent{Type: "done", Text: final})
}
