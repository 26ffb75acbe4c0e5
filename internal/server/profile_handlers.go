// ABOUTME: User profile CRUD handlers
// ABOUTME: Raw enum strings from requests are validated here, once, into closed types
package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/models"
)

type profileRequest struct {
	Email    string `json:"email"`
	Hardware struct {
		HasRTXGPU    bool   `json:"has_rtx_gpu"`
		JetsonModel  string `json:"jetson_model"`
		RobotType    string `json:"robot_type"`
		HasRealsense bool   `json:"has_realsense"`
		HasLidar     bool   `json:"has_lidar"`
	} `json:"hardware"`
	Experience struct {
		ROS2       string `json:"ros2"`
		ML         string `json:"ml"`
		Robotics   string `json:"robotics"`
		Simulation string `json:"simulation"`
	} `json:"experience"`
	Preferences struct {
		Language string `json:"language"`
		Theme    string `json:"theme"`
	} `json:"preferences"`
}

// toProfile validates every enum field and builds the domain profile.
// Downstream code never sees an unvalidated string.
func (r *profileRequest) toProfile() (*models.UserProfile, error) {
	if strings.TrimSpace(r.Email) == "" {
		return nil, apperr.Invalid("email", "must not be empty")
	}

	jetson, err := models.ParseJetsonModel(r.Hardware.JetsonModel)
	if err != nil {
		return nil, apperr.Invalid("hardware.jetson_model", err.Error())
	}
	robot, err := models.ParseRobotType(r.Hardware.RobotType)
	if err != nil {
		return nil, apperr.Invalid("hardware.robot_type", err.Error())
	}

	levels := make([]models.ExperienceLevel, 4)
	for i, raw := range []struct{ field, value string }{
		{"experience.ros2", r.Experience.ROS2},
		{"experience.ml", r.Experience.ML},
		{"experience.robotics", r.Experience.Robotics},
		{"experience.simulation", r.Experience.Simulation},
	} {
		level, err := models.ParseExperienceLevel(raw.value)
		if err != nil {
			return nil, apperr.Invalid(raw.field, err.Error())
		}
		levels[i] = level
	}

	lang := models.LanguageEnglish
	if r.Preferences.Language != "" {
		lang, err = models.ParseLanguage(r.Preferences.Language)
		if err != nil {
			return nil, apperr.Invalid("preferences.language", err.Error())
		}
	}
	theme, err := models.ParseTheme(r.Preferences.Theme)
	if err != nil {
		return nil, apperr.Invalid("preferences.theme", err.Error())
	}

	return &models.UserProfile{
		Email: r.Email,
		Hardware: models.HardwareProfile{
			HasRTXGPU:    r.Hardware.HasRTXGPU,
			JetsonModel:  jetson,
			RobotType:    robot,
			HasRealsense: r.Hardware.HasRealsense,
			HasLidar:     r.Hardware.HasLidar,
		},
		Experience: models.ExperienceProfile{
			ROS2:       levels[0],
			ML:         levels[1],
			Robotics:   levels[2],
			Simulation: levels[3],
		},
		Preferences: models.PreferencesProfile{Language: lang, Theme: theme},
	}, nil
}

func (s *Server) handleCreateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}

	profile, err := req.toProfile()
	if err != nil {
		return writeError(c, err)
	}

	existing, err := s.deps.Profiles.GetByEmail(profile.Email)
	if err != nil {
		return writeError(c, err)
	}
	if existing != nil {
		return writeError(c, apperr.Invalid("email", "already registered"))
	}

	if err := s.deps.Profiles.Create(profile); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	profile, err := s.deps.Profiles.GetByID(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if profile == nil {
		return writeError(c, apperr.NotFound("profile", c.Param("id")))
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	id := c.Param("id")
	existing, err := s.deps.Profiles.GetByID(id)
	if err != nil {
		return writeError(c, err)
	}
	if existing == nil {
		return writeError(c, apperr.NotFound("profile", id))
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Invalid("body", "malformed JSON"))
	}
	if req.Email == "" {
		req.Email = existing.Email
	}

	profile, err := req.toProfile()
	if err != nil {
		return writeError(c, err)
	}
	profile.ID = id
	profile.CreatedAt = existing.CreatedAt

	if err := s.deps.Profiles.Update(profile); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}
