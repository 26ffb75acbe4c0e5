// ABOUTME: Applies profile-derived adaptations to section content
// ABOUTME: Targets headings through the block tree, so misses are reported, never silent
package personalize

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/chunker"
	"github.com/harper/bookbrain/internal/models"
)

// ProfileGetter looks up a stored user profile
type ProfileGetter interface {
	GetByID(id string) (*models.UserProfile, error)
}

// Service adapts book sections to a reader's profile
type Service struct {
	profiles ProfileGetter
	docsDir  string
}

// NewService creates a content adaptation service
func NewService(profiles ProfileGetter, docsDir string) *Service {
	return &Service{profiles: profiles, docsDir: docsDir}
}

// Result reports the adapted content plus which adaptations landed
type Result struct {
	SectionID      string       `json:"section_id"`
	OriginalLength int          `json:"original_length"`
	AdaptedLength  int          `json:"adapted_length"`
	Adaptations    []Adaptation `json:"adaptations"`
	AdaptedContent string       `json:"adapted_content"`
}

// AdaptSection loads the section's source, derives adaptations from the user's
// profile, and applies them. Adaptations whose target heading is absent from
// this section are returned with Applied=false rather than dropped.
func (s *Service) AdaptSection(sectionID, userID string) (*Result, error) {
	if strings.TrimSpace(sectionID) == "" {
		return nil, apperr.Invalid("section_id", "must not be empty")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Invalid("user_id", "must not be empty")
	}

	profile, err := s.profiles.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("profile", userID)
	}

	content, err := s.loadSection(sectionID)
	if err != nil {
		return nil, err
	}

	return Adapt(profile, sectionID, content), nil
}

// Preview derives the adaptations a profile would trigger without loading or
// modifying any content.
func (s *Service) Preview(userID string) ([]Adaptation, error) {
	profile, err := s.profiles.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("profile", userID)
	}
	return append(HardwareAdaptations(profile), ExperienceAdaptations(profile)...), nil
}

// Adapt applies every adaptation the profile triggers to the given content
func Adapt(profile *models.UserProfile, sectionID, content string) *Result {
	adaptations := append(HardwareAdaptations(profile), ExperienceAdaptations(profile)...)
	doc := ParseDocument(content)

	applied := 0
	for i := range adaptations {
		a := &adaptations[i]
		a.Applied = apply(doc, a)
		if a.Applied {
			applied++
		}
	}
	log.Printf("Applied %d/%d adaptations to %s", applied, len(adaptations), sectionID)

	adapted := doc.Render()
	return &Result{
		SectionID:      sectionID,
		OriginalLength: len(content),
		AdaptedLength:  len(adapted),
		Adaptations:    adaptations,
		AdaptedContent: adapted,
	}
}

func apply(doc *Document, a *Adaptation) bool {
	if a.TargetHeading == "" {
		if a.Position != PositionBefore {
			return false
		}
		doc.Prepend(a.Content)
		return true
	}

	slug := chunker.Slugify(a.TargetHeading)
	switch a.Position {
	case PositionBefore:
		return doc.InsertBefore(slug, a.Content)
	case PositionAfter:
		return doc.InsertAfter(slug, a.Content)
	case PositionReplace:
		return doc.Replace(slug, a.Content)
	}
	return false
}

func (s *Service) loadSection(sectionID string) (string, error) {
	relPath := sectionID
	if i := strings.IndexByte(sectionID, '#'); i >= 0 {
		relPath = sectionID[:i]
	}
	if relPath == "" || strings.Contains(relPath, "..") {
		return "", apperr.Invalid("section_id", "malformed section path")
	}

	for _, ext := range []string{".md", ".mdx"} {
		data, err := os.ReadFile(filepath.Join(s.docsDir, relPath+ext))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read section %s: %w", sectionID, err)
		}
	}
	return "", apperr.NotFound("section", sectionID)
}
