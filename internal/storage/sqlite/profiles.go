// ABOUTME: User profile persistence for the personalization engine
// ABOUTME: Enum columns store already-validated values; no re-validation on read
package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/harper/bookbrain/internal/models"
)

// ProfileStore handles user profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new ProfileStore
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Create inserts a new profile. Fails if the email is already registered.
func (s *ProfileStore) Create(profile *models.UserProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO user_profiles
			(id, email, has_rtx_gpu, jetson_model, robot_type, has_realsense, has_lidar,
			 exp_ros2, exp_ml, exp_robotics, exp_simulation,
			 pref_language, pref_theme, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, profile.ID, profile.Email,
		boolInt(profile.Hardware.HasRTXGPU), string(profile.Hardware.JetsonModel),
		string(profile.Hardware.RobotType), boolInt(profile.Hardware.HasRealsense),
		boolInt(profile.Hardware.HasLidar),
		string(profile.Experience.ROS2), string(profile.Experience.ML),
		string(profile.Experience.Robotics), string(profile.Experience.Simulation),
		string(profile.Preferences.Language), string(profile.Preferences.Theme),
		profile.CreatedAt, profile.UpdatedAt)

	return err
}

// Update overwrites an existing profile's mutable fields
func (s *ProfileStore) Update(profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		UPDATE user_profiles SET
			has_rtx_gpu = ?, jetson_model = ?, robot_type = ?,
			has_realsense = ?, has_lidar = ?,
			exp_ros2 = ?, exp_ml = ?, exp_robotics = ?, exp_simulation = ?,
			pref_language = ?, pref_theme = ?, updated_at = ?
		WHERE id = ?
	`, boolInt(profile.Hardware.HasRTXGPU), string(profile.Hardware.JetsonModel),
		string(profile.Hardware.RobotType), boolInt(profile.Hardware.HasRealsense),
		boolInt(profile.Hardware.HasLidar),
		string(profile.Experience.ROS2), string(profile.Experience.ML),
		string(profile.Experience.Robotics), string(profile.Experience.Simulation),
		string(profile.Preferences.Language), string(profile.Preferences.Theme),
		profile.UpdatedAt, profile.ID)

	return err
}

// GetByID retrieves a profile by its ID, nil if absent
func (s *ProfileStore) GetByID(id string) (*models.UserProfile, error) {
	return s.get(`WHERE id = ?`, id)
}

// GetByEmail retrieves a profile by email, nil if absent
func (s *ProfileStore) GetByEmail(email string) (*models.UserProfile, error) {
	return s.get(`WHERE email = ?`, email)
}

func (s *ProfileStore) get(where string, arg any) (*models.UserProfile, error) {
	var (
		p                              models.UserProfile
		rtx, realsense, lidar          int
		jetson, robot                  string
		ros2, ml, robotics, simulation string
		language, theme                string
	)

	err := s.db.QueryRow(`
		SELECT id, email, has_rtx_gpu, jetson_model, robot_type, has_realsense, has_lidar,
		       exp_ros2, exp_ml, exp_robotics, exp_simulation,
		       pref_language, pref_theme, created_at, updated_at
		FROM user_profiles `+where,
		arg).Scan(&p.ID, &p.Email, &rtx, &jetson, &robot, &realsense, &lidar,
		&ros2, &ml, &robotics, &simulation, &language, &theme,
		&p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Hardware = models.HardwareProfile{
		HasRTXGPU:    rtx != 0,
		JetsonModel:  models.JetsonModel(jetson),
		RobotType:    models.RobotType(robot),
		HasRealsense: realsense != 0,
		HasLidar:     lidar != 0,
	}
	p.Experience = models.ExperienceProfile{
		ROS2:       models.ExperienceLevel(ros2),
		ML:         models.ExperienceLevel(ml),
		Robotics:   models.ExperienceLevel(robotics),
		Simulation: models.ExperienceLevel(simulation),
	}
	p.Preferences = models.PreferencesProfile{
		Language: models.Language(language),
		Theme:    models.Theme(theme),
	}
	return &p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
