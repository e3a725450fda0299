package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	medrag "github.com/KilianLavenan/medical-rag-chat"
	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/retrieval"
)

type handler struct {
	engine *medrag.Engine
}

func newRouter(engine *medrag.Engine) http.Handler {
	h := &handler{engine: engine}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Post("/chat", h.handleChat)
	r.Post("/ingest", h.handleIngest)
	return r
}

type chatRequest struct {
	Question string        `json:"question"`
	History  []llm.Message `json:"history,omitempty"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// POST /chat
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.engine.Ask(r.Context(), req.Question, req.History)
	if err != nil {
		if errors.Is(err, retrieval.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "retrieval backend unavailable")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		slog.Error("chat error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

// POST /ingest re-runs the full pipeline on the configured document.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := h.engine.Ingest(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		slog.Error("ingest error", "error", err)
		return
	}

	count, err := h.engine.Store().Count(ctx)
	if err != nil {
		count = -1
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunks": count})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
