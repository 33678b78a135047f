package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/dictachat/memcore/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAddFragment(w http.ResponseWriter, r *http.Request) {
	var req engine.FragmentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	frag, err := engine.ValidateInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.res.Add(r.Context(), frag)
	if !res.Success {
		writeError(w, http.StatusServiceUnavailable, "write failed after retries")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"fragment":  res.Fragment,
		"recovered": res.Recovered,
		"attempts":  res.Attempts,
	})
}

func (s *Server) handleGetFragment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	f := s.engine().Get(id)
	if f == nil {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFragment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	if !s.engine().Delete(id) {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	if s.db != nil {
		if err := s.db.DeleteFragment(id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handlePatchMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	var patch engine.MetadataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if !s.engine().UpdateMetadata(id, patch) {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	writeJSON(w, http.StatusOK, s.engine().Get(id))
}

func (s *Server) handleTombstone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	ts, err := s.engine().Tombstone(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ts)
}

func (s *Server) handleSupersede(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	var req engine.FragmentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	replacement, err := engine.ValidateInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.engine().Supersede(r.Context(), id, replacement)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	var req struct {
		Outcome string `json:"outcome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var outcome engine.Outcome
	switch req.Outcome {
	case "positive":
		outcome = engine.OutcomePositive
	case "negative":
		outcome = engine.OutcomeNegative
	case "neutral":
		outcome = engine.OutcomeNeutral
	default:
		writeError(w, http.StatusBadRequest, "outcome must be positive, negative, or neutral")
		return
	}

	// Unknown ids accumulate history silently; this is not an error.
	s.engine().RecordOutcome(id, outcome)

	eff := s.engine().Tracker().Effectiveness(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         id,
		"score":      eff.Score,
		"confidence": eff.Confidence,
		"samples":    eff.Samples,
		"maturity":   engine.Maturity(eff.Samples, eff.Score),
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fragmentID")

	var req struct {
		Positive *bool `json:"positive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Positive == nil {
		writeError(w, http.StatusBadRequest, "positive required")
		return
	}

	s.engine().RecordFeedback(id, *req.Positive)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"weight": s.engine().Tracker().Weight(id),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	opts := engine.SearchOpts{Context: r.URL.Query().Get("context")}
	resp := s.res.Search(r.Context(), query, limit, opts)

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"count":     len(resp.Results),
		"degraded":  resp.Degraded,
		"results":   resp.Results,
		"citations": engine.BuildCitations(resp.Results),
	})
}
