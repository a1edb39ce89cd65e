package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"assessment-scoring-service/internal/app"
	"assessment-scoring-service/internal/domain"
)

// RecalcHandler exposes the recalculation trigger over HTTP.
type RecalcHandler struct {
	service *app.RecalcService
}

func NewRecalcHandler(service *app.RecalcService) *RecalcHandler {
	return &RecalcHandler{service: service}
}

type recalcRequest struct {
	Scope domain.RecalcScope `json:"scope"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeRecalculate handles POST /v1/recalculations.
// Status mapping: 400 for a missing or ambiguous scope (no store writes
// happen), 200 with the full report on success including the zero-work
// case, 500 when candidates cannot even be listed.
func (h *RecalcHandler) ServeRecalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	report, err := h.service.Recalculate(r.Context(), req.Scope)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidScope) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Printf("recalculation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
