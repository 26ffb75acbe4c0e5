// ABOUTME: Request handlers for question answering, translation, and progress
// ABOUTME: DTOs live here; enum fields are parsed into closed types before use
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/models"
	"github.com/harper/bookbrain/internal/rag"
	"github.com/harper/bookbrain/internal/translation"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type bookQARequest struct {
	Query   string            `json:"query"`
	UserID  string            `json:"user_id,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

func (s *Server) handleBookQA(c echo.Context) error {
	var req bookQARequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}

	answer, err := s.deps.QA.AnswerBookWide(c.Request().Context(), rag.BookQuery{
		Query:   req.Query,
		UserID:  req.UserID,
		Filters: req.Filters,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, answer)
}

type selectionQARequest struct {
	Query        string `json:"query"`
	SelectedText string `json:"selected_text"`
	UserID       string `json:"user_id,omitempty"`
}

func (s *Server) handleSelectionQA(c echo.Context) error {
	var req selectionQARequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}

	answer, err := s.deps.QA.AnswerSelection(c.Request().Context(), rag.SelectionQuery{
		Query:     req.Query,
		Selection: req.SelectedText,
		UserID:    req.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, answer)
}

type translateRequest struct {
	SectionID      string `json:"section_id"`
	TargetLanguage string `json:"target_language"`
	Content        string `json:"content,omitempty"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}

	result, err := s.deps.Translate.Translate(c.Request().Context(), translation.Request{
		SectionID:      req.SectionID,
		TargetLanguage: req.TargetLanguage,
		Content:        req.Content,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleSupportedLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]models.LanguageInfo{
		"languages": models.SupportedLanguages,
	})
}

type adaptContentRequest struct {
	SectionID string `json:"section_id"`
	UserID    string `json:"user_id"`
}

func (s *Server) handleAdaptContent(c echo.Context) error {
	var req adaptContentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}

	result, err := s.deps.Adapt.AdaptSection(req.SectionID, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handlePreview(c echo.Context) error {
	adaptations, err := s.deps.Adapt.Preview(c.Param("user_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"adaptations": adaptations,
		"total":       len(adaptations),
	})
}

type progressRequest struct {
	UserID           string  `json:"user_id"`
	SectionID        string  `json:"section_id"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	ScrollPercentage float64 `json:"scroll_percentage"`
}

func (s *Server) handleSaveProgress(c echo.Context) error {
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}
	if req.UserID == "" {
		return writeError(c, apperr.Invalid("user_id", "must not be empty"))
	}
	if req.SectionID == "" {
		return writeError(c, apperr.Invalid("section_id", "must not be empty"))
	}
	if req.ScrollPercentage < 0 || req.ScrollPercentage > 1 {
		return writeError(c, apperr.Invalid("scroll_percentage", "must be between 0 and 1"))
	}

	progress := &models.ReadingProgress{
		UserID:           req.UserID,
		SectionID:        req.SectionID,
		TimeSpentSeconds: req.TimeSpentSeconds,
		ScrollPercentage: req.ScrollPercentage,
	}
	if err := s.deps.Progress.Upsert(progress); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

func (s *Server) handleGetProgress(c echo.Context) error {
	rows, err := s.deps.Progress.GetByUser(c.Param("user_id"))
	if err != nil {
		return writeError(c, err)
	}
	if rows == nil {
		rows = []models.ReadingProgress{}
	}
	return c.JSON(http.StatusOK, map[string]any{"progress": rows})
}
