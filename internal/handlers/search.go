package handlers

import (
	"encoding/json"
	"net/http"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/search"
	"classroom-notifier/internal/service"
)

// SearchHandler handles HTTP requests for content search.
type SearchHandler struct {
	notifier service.NotifierService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(notifier service.NotifierService) *SearchHandler {
	return &SearchHandler{notifier: notifier}
}

// SearchRequest represents the HTTP request payload for search.
// Either Filter or Q may be set; Filter wins when both are.
type SearchRequest struct {
	UserID string         `json:"userId"`
	Filter *search.Filter `json:"filter,omitempty"`
	Q      string         `json:"q,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Count   int              `json:"count"`
	Filter  search.Filter    `json:"filter"`
	Results []content.Record `json:"results"`
	Text    string           `json:"text"`
}

// ServeHTTP handles POST /api/search. With ?format=text the chat-ready
// rendering is returned as plain text instead of JSON.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.notifier.Search(ctx, service.SearchRequest{
		UserID: req.UserID,
		Filter: req.Filter,
		Query:  req.Q,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process search request")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(messaging.PlainText(resp.Text)))
		return
	}

	results := resp.Records
	if results == nil {
		results = []content.Record{}
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Count:   len(results),
		Filter:  resp.Filter,
		Results: results,
		Text:    resp.Text,
	})
}
