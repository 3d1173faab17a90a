package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/insight"
	"github.com/jonathan/sdr-coach/internal/pipeline"
	"github.com/jonathan/sdr-coach/internal/server/middleware"
	"github.com/jonathan/sdr-coach/internal/structure"
)

// CreateAnalysisRequest is the body for POST /users/{id}/analyses.
type CreateAnalysisRequest struct {
	Kind               string `json:"kind" validate:"required"`
	JobURL             string `json:"job_url,omitempty" validate:"omitempty,url"`
	JobText            string `json:"job_text,omitempty"`
	Instruction        string `json:"instruction,omitempty" validate:"omitempty,max=2000"`
	CustomSystemPrompt string `json:"custom_system_prompt,omitempty" validate:"omitempty,max=8000"`
}

// AnalysisResponse is the wire shape for a stored or in-session
// analysis.
type AnalysisResponse struct {
	Analysis   *insight.Analysis `json:"analysis,omitempty"`
	RawText    string            `json:"raw_text,omitempty"`
	Structured *structure.Schema `json:"structured,omitempty"`
	// Source tells the caller whether structured data was genuinely
	// parsed or heuristically reconstructed.
	Source       string   `json:"source,omitempty"`
	Placeholders []string `json:"placeholder_fields,omitempty"`
	// Degraded is set when resume extraction fell back to diagnostic
	// placeholder text; the analysis quality is correspondingly low.
	Degraded bool `json:"degraded,omitempty"`
	// Saved is false when the analysis succeeded but persisting it did
	// not; the result is usable in-session but absent from history.
	Saved     bool   `json:"saved"`
	SaveError string `json:"save_error,omitempty"`
}

// handleCreateAnalysis runs the pipeline synchronously and returns the
// result.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUser(w, r)
	if !ok {
		return
	}

	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	kind := coach.Kind(req.Kind)
	if !coach.Valid(kind) {
		s.errorResponse(w, http.StatusBadRequest, "Unknown analysis kind: "+req.Kind)
		return
	}
	if kind == coach.KindCustom && req.CustomSystemPrompt == "" {
		s.errorResponse(w, http.StatusBadRequest, "custom kind requires custom_system_prompt")
		return
	}

	outcome, err := s.deps.Pipeline.Run(r.Context(), pipeline.RunRequest{
		UserID:             userID,
		Kind:               kind,
		JobURL:             req.JobURL,
		JobText:            req.JobText,
		ExtraInstruction:   req.Instruction,
		CustomSystemPrompt: req.CustomSystemPrompt,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp := AnalysisResponse{
		Analysis:     outcome.Analysis,
		RawText:      outcome.RawText,
		Structured:   &outcome.Structured.Schema,
		Source:       string(outcome.Structured.Source),
		Placeholders: outcome.Structured.Placeholders,
		Degraded:     outcome.Degraded,
		Saved:        outcome.SaveErr == nil,
	}
	if outcome.SaveErr != nil {
		resp.SaveError = outcome.SaveErr.Error()
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleListAnalyses returns a user's analyses newest-first.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUser(w, r)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	analyses, err := s.deps.Insights.List(r.Context(), userID, limit)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// handleGetAnalysis returns one analysis by ID.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	analysis, err := s.deps.Insights.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !s.ownedBy(w, r, analysis.UserID) {
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// UpdateAnalysisRequest is the body for PATCH /analyses/{id}. Absent
// fields are left unchanged.
type UpdateAnalysisRequest struct {
	IsFavorite *bool     `json:"is_favorite,omitempty"`
	Tags       *[]string `json:"tags,omitempty" validate:"omitempty,dive,max=64"`
}

// handleUpdateAnalysis updates the favorite flag or tags. Concurrent
// updates are last-write-wins.
func (s *Server) handleUpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if req.IsFavorite == nil && req.Tags == nil {
		s.errorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	current, err := s.deps.Insights.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !s.ownedBy(w, r, current.UserID) {
		return
	}

	updated, err := s.deps.Insights.ApplyUpdate(r.Context(), id, insight.Update{
		IsFavorite: req.IsFavorite,
		Tags:       req.Tags,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteAnalysis hard-deletes an analysis.
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	current, err := s.deps.Insights.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !s.ownedBy(w, r, current.UserID) {
		return
	}

	if err := s.deps.Insights.Delete(r.Context(), id); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathUser parses {id} and requires it to match the authenticated user.
func (s *Server) pathUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	if !s.ownedBy(w, r, userID) {
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the {id} path segment as a UUID.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// ownedBy rejects the request unless the authenticated user matches.
func (s *Server) ownedBy(w http.ResponseWriter, r *http.Request, owner uuid.UUID) bool {
	authed, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if authed != owner {
		s.errorResponse(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing recoverable.
		return
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
