// ABOUTME: User profile with closed enum types for hardware, experience, and preferences
// ABOUTME: Enums are validated once at the API boundary, never re-validated downstream
package models

import (
	"fmt"
	"time"
)

// JetsonModel is the user's edge device, if any
type JetsonModel string

const (
	JetsonNone     JetsonModel = "none"
	JetsonNano     JetsonModel = "nano"
	JetsonOrinNano JetsonModel = "orin_nano"
	JetsonOrinNX   JetsonModel = "orin_nx"
	JetsonAGXOrin  JetsonModel = "agx_orin"
)

// ParseJetsonModel validates a raw request string against the closed set
func ParseJetsonModel(s string) (JetsonModel, error) {
	switch JetsonModel(s) {
	case JetsonNone, JetsonNano, JetsonOrinNano, JetsonOrinNX, JetsonAGXOrin:
		return JetsonModel(s), nil
	case "":
		return JetsonNone, nil
	}
	return "", fmt.Errorf("unknown jetson model %q", s)
}

// RobotType is the user's robot platform, if any
type RobotType string

const (
	RobotNone     RobotType = "none"
	RobotArm      RobotType = "arm"
	RobotMobile   RobotType = "mobile"
	RobotHumanoid RobotType = "humanoid"
)

// ParseRobotType validates a raw request string against the closed set
func ParseRobotType(s string) (RobotType, error) {
	switch RobotType(s) {
	case RobotNone, RobotArm, RobotMobile, RobotHumanoid:
		return RobotType(s), nil
	case "":
		return RobotNone, nil
	}
	return "", fmt.Errorf("unknown robot type %q", s)
}

// ExperienceLevel grades prior exposure to a topic
type ExperienceLevel string

const (
	ExperienceNone         ExperienceLevel = "none"
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// ParseExperienceLevel validates a raw request string against the closed set
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch ExperienceLevel(s) {
	case ExperienceNone, ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return ExperienceLevel(s), nil
	case "":
		return ExperienceNone, nil
	}
	return "", fmt.Errorf("unknown experience level %q", s)
}

// Theme is the UI theme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a raw request string against the closed set
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	case "":
		return ThemeLight, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// HardwareProfile is the user's hardware inventory
type HardwareProfile struct {
	HasRTXGPU    bool        `json:"has_rtx_gpu"`
	JetsonModel  JetsonModel `json:"jetson_model"`
	RobotType    RobotType   `json:"robot_type"`
	HasRealsense bool        `json:"has_realsense"`
	HasLidar     bool        `json:"has_lidar"`
}

// ExperienceProfile grades the user across the book's topic areas
type ExperienceProfile struct {
	ROS2       ExperienceLevel `json:"ros2"`
	ML         ExperienceLevel `json:"ml"`
	Robotics   ExperienceLevel `json:"robotics"`
	Simulation ExperienceLevel `json:"simulation"`
}

// PreferencesProfile holds display preferences
type PreferencesProfile struct {
	Language Language `json:"language"`
	Theme    Theme    `json:"theme"`
}

// UserProfile drives content adaptation and translation defaults
type UserProfile struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Hardware    HardwareProfile    `json:"hardware"`
	Experience  ExperienceProfile  `json:"experience"`
	Preferences PreferencesProfile `json:"preferences"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
