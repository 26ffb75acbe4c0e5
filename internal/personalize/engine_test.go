// ABOUTME: Tests for profile-driven content adaptation
// ABOUTME: Exercises rule derivation and end-to-end section adaptation
package personalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/models"
	"github.com/harper/bookbrain/internal/storage/sqlite"
)

func beginnerNoHardware() *models.UserProfile {
	return &models.UserProfile{
		Email: "beginner@example.com",
		Hardware: models.HardwareProfile{
			JetsonModel: models.JetsonNone,
			RobotType:   models.RobotNone,
		},
		Experience: models.ExperienceProfile{
			ROS2: models.ExperienceBeginner,
			ML:   models.ExperienceBeginner,
		},
	}
}

func advancedFullRig() *models.UserProfile {
	return &models.UserProfile{
		Email: "expert@example.com",
		Hardware: models.HardwareProfile{
			HasRTXGPU:   true,
			JetsonModel: models.JetsonOrinNano,
			RobotType:   models.RobotArm,
		},
		Experience: models.ExperienceProfile{
			ROS2: models.ExperienceAdvanced,
			ML:   models.ExperienceAdvanced,
		},
	}
}

func TestHardwareAdaptations_NoHardware(t *testing.T) {
	adaptations := HardwareAdaptations(beginnerNoHardware())

	if len(adaptations) != 3 {
		t.Fatalf("Adaptations = %d, want 3 (cloud GPU, simulation-first, simulation testing)", len(adaptations))
	}
	reasons := make(map[string]bool)
	for _, a := range adaptations {
		reasons[a.Reason] = true
	}
	for _, want := range []string{"User has no RTX GPU", "User has no Jetson device", "User has no robot"} {
		if !reasons[want] {
			t.Errorf("Missing adaptation with reason %q", want)
		}
	}
}

func TestHardwareAdaptations_FullRig(t *testing.T) {
	adaptations := HardwareAdaptations(advancedFullRig())

	if len(adaptations) != 2 {
		t.Fatalf("Adaptations = %d, want 2 (Jetson tips, robot integration)", len(adaptations))
	}
	if !strings.Contains(adaptations[0].Content, "Jetson Orin Nano") {
		t.Errorf("Jetson tips missing the model name:\n%.120s", adaptations[0].Content)
	}
	if !strings.Contains(adaptations[1].Content, "ros-humble-arm-*") {
		t.Errorf("Robot tips missing the package hint:\n%.120s", adaptations[1].Content)
	}
}

func TestExperienceAdaptations_BeginnerGetsPrependedNote(t *testing.T) {
	adaptations := ExperienceAdaptations(beginnerNoHardware())

	var prereq *Adaptation
	for i := range adaptations {
		if adaptations[i].Reason == "User is ROS 2 beginner" {
			prereq = &adaptations[i]
		}
	}
	if prereq == nil {
		t.Fatal("Beginner prerequisite note missing")
	}
	if prereq.TargetHeading != "" || prereq.Position != PositionBefore {
		t.Errorf("Prerequisite note must target the document start, got %+v", prereq)
	}
}

func TestExperienceAdaptations_IntermediateGetsNothing(t *testing.T) {
	p := beginnerNoHardware()
	p.Experience.ROS2 = models.ExperienceIntermediate
	p.Experience.ML = models.ExperienceIntermediate

	if adaptations := ExperienceAdaptations(p); len(adaptations) != 0 {
		t.Errorf("Adaptations = %d, want 0 for intermediate levels", len(adaptations))
	}
}

func TestAdapt_AppliesAndReportsMisses(t *testing.T) {
	content := `# Chapter

## Hardware Requirements

You need a GPU.

## Edge Deployment

Deploy here.
`
	result := Adapt(beginnerNoHardware(), "modules/ros2/index", content)

	if !strings.Contains(result.AdaptedContent, "Cloud GPU Alternative") {
		t.Error("Cloud GPU block not injected after Hardware Requirements")
	}
	if !strings.Contains(result.AdaptedContent, "Simulation-First Workflow") {
		t.Error("Simulation-first block not injected after Edge Deployment")
	}
	if !strings.HasPrefix(result.AdaptedContent, "> **New to ROS 2?**") {
		t.Error("Beginner note not prepended to the document")
	}
	if result.AdaptedLength <= result.OriginalLength {
		t.Error("Adapted content must be longer than the original")
	}

	// "Testing" and "Machine Learning Integration" headings are absent here
	var misses int
	for _, a := range result.Adaptations {
		if !a.Applied {
			misses++
		}
	}
	if misses != 2 {
		t.Errorf("Unapplied adaptations = %d, want 2 for this section", misses)
	}
}

func newTestService(t *testing.T) (*Service, *sqlite.ProfileStore, string) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := sqlite.NewProfileStore(db)
	dir := t.TempDir()
	return NewService(store, dir), store, dir
}

func TestAdaptSection_EndToEnd(t *testing.T) {
	svc, store, dir := newTestService(t)

	profile := beginnerNoHardware()
	if err := store.Create(profile); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	section := "# Chapter\n\n## Hardware Requirements\n\nGPU needed.\n"
	if err := os.MkdirAll(filepath.Join(dir, "modules/ros2"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "modules/ros2/index.md"), []byte(section), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := svc.AdaptSection("modules/ros2/index#chapter", profile.ID)
	if err != nil {
		t.Fatalf("AdaptSection() error = %v", err)
	}
	if !strings.Contains(result.AdaptedContent, "Cloud GPU Alternative") {
		t.Error("Adaptation not applied end to end")
	}
}

func TestAdaptSection_MissingProfile(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AdaptSection("modules/ros2/index", "no-such-user")
	var nerr *apperr.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestAdaptSection_MissingSection(t *testing.T) {
	svc, store, _ := newTestService(t)

	profile := beginnerNoHardware()
	if err := store.Create(profile); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := svc.AdaptSection("modules/missing/index", profile.ID)
	var nerr *apperr.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	svc, store, _ := newTestService(t)

	profile := advancedFullRig()
	if err := store.Create(profile); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	adaptations, err := svc.Preview(profile.ID)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(adaptations) != 4 {
		t.Errorf("Adaptations = %d, want 4 for the full rig expert", len(adaptations))
	}
	for _, a := range adaptations {
		if a.Applied {
			t.Error("Preview must not mark adaptations as applied")
		}
	}
}
