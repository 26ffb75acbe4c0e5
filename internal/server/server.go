// ABOUTME: HTTP surface for the bookbrain backend, built on echo
// ABOUTME: Handlers validate at the boundary and map the error taxonomy to status codes
package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/models"
	"github.com/harper/bookbrain/internal/personalize"
	"github.com/harper/bookbrain/internal/rag"
	"github.com/harper/bookbrain/internal/translation"
)

// QAService answers reader questions
type QAService interface {
	AnswerBookWide(ctx context.Context, q rag.BookQuery) (*rag.Answer, error)
	AnswerSelection(ctx context.Context, q rag.SelectionQuery) (*rag.Answer, error)
}

// Translator serves cached translations
type Translator interface {
	Translate(ctx context.Context, req translation.Request) (*translation.Result, error)
}

// Adapter personalizes section content
type Adapter interface {
	AdaptSection(sectionID, userID string) (*personalize.Result, error)
	Preview(userID string) ([]personalize.Adaptation, error)
}

// ProfileStore persists user profiles
type ProfileStore interface {
	Create(profile *models.UserProfile) error
	Update(profile *models.UserProfile) error
	GetByID(id string) (*models.UserProfile, error)
	GetByEmail(email string) (*models.UserProfile, error)
}

// ProgressStore persists reading progress
type ProgressStore interface {
	Upsert(progress *models.ReadingProgress) error
	GetByUser(userID string) ([]models.ReadingProgress, error)
}

// Deps collects everything the HTTP surface serves
type Deps struct {
	QA        QAService
	Translate Translator
	Adapt     Adapter
	Profiles  ProfileStore
	Progress  ProgressStore
}

// Server wires the HTTP routes over the backend services
type Server struct {
	echo *echo.Echo
	deps Deps
}

// New builds the echo application with middleware and routes registered
func New(deps Deps, corsOrigins []string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	if len(corsOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.OPTIONS},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s := &Server{echo: e, deps: deps}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/rag/book-qa", s.handleBookQA)
	api.POST("/rag/selection-qa", s.handleSelectionQA)

	api.POST("/translation/translate", s.handleTranslate)
	api.GET("/translation/supported-languages", s.handleSupportedLanguages)

	api.POST("/personalization/profile", s.handleCreateProfile)
	api.GET("/personalization/profile/:id", s.handleGetProfile)
	api.PUT("/personalization/profile/:id", s.handleUpdateProfile)
	api.POST("/personalization/adapt-content", s.handleAdaptContent)
	api.GET("/personalization/preview/:user_id", s.handlePreview)

	api.POST("/progress", s.handleSaveProgress)
	api.GET("/progress/:user_id", s.handleGetProgress)
}

// Start runs the server until it fails or is shut down
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps taxonomy errors to HTTP statuses. Backend detail is logged
// server-side; the client only ever sees which service was unavailable.
func writeError(c echo.Context, err error) error {
	var uerr *apperr.UnavailableError
	if errors.As(err, &uerr) {
		log.Printf("Error: %v", err)
		return c.JSON(http.StatusServiceUnavailable,
			errorResponse{Error: uerr.Service + " service temporarily unavailable, please retry"})
	}
	var nerr *apperr.NotFoundError
	if errors.As(err, &nerr) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: nerr.Error()})
	}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error()})
	}
	log.Printf("Error: unexpected: %v", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
