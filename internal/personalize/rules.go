// ABOUTME: Profile-driven adaptation rules for book content
// ABOUTME: Each rule emits a placement, a target heading, and the content to inject
package personalize

import (
	"fmt"
	"strings"

	"github.com/harper/bookbrain/internal/models"
)

// Position says where an adaptation lands relative to its target heading
type Position string

const (
	PositionBefore  Position = "before"
	PositionAfter   Position = "after"
	PositionReplace Position = "replace"
)

// Adaptation is one content modification derived from a profile. An empty
// TargetHeading with PositionBefore means the start of the document.
type Adaptation struct {
	Position      Position `json:"position"`
	TargetHeading string   `json:"target_heading,omitempty"`
	Content       string   `json:"content"`
	Reason        string   `json:"reason"`
	Applied       bool     `json:"applied"`
}

// HardwareAdaptations derives content modifications from the reader's hardware
func HardwareAdaptations(profile *models.UserProfile) []Adaptation {
	var out []Adaptation

	if !profile.Hardware.HasRTXGPU {
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Hardware Requirements",
			Content: `### Cloud GPU Alternative (For Your Setup)

Since you don't have a local RTX GPU, consider these cloud options:

| Service | GPU Options | Cost | Best For |
|---------|-------------|------|----------|
| Google Colab | T4 (free), A100 (paid) | $0-10/month | Learning, prototyping |
| Paperspace Gradient | RTX 4000+ | ~$0.50/hr | Training, Isaac Sim |
| AWS EC2 (g4dn) | Tesla T4 | ~$0.50/hr | Production workloads |

Start with the free Google Colab tier for learning, move to Paperspace when you need Isaac Sim. Trained models transfer to an edge device for deployment unchanged.`,
			Reason: "User has no RTX GPU",
		})
	}

	if profile.Hardware.JetsonModel == models.JetsonNone {
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Edge Deployment",
			Content: `### Simulation-First Workflow (For Your Setup)

Without a Jetson device, focus on simulation and cloud deployment:

1. **Simulation**: develop and test entirely in Gazebo or Isaac Sim, using Docker containers for consistent environments.
2. **Cloud deployment**: deploy trained models to cloud inference endpoints (AWS Lambda, Google Cloud Run).
3. **Future Jetson purchase** (optional): the Jetson Orin Nano is the recommended entry point. The same ROS 2 packages and Docker containers run on edge with zero code changes.

Simulation is free; cloud inference runs $10-50/month depending on usage.`,
			Reason: "User has no Jetson device",
		})
	} else {
		name := displayName(string(profile.Hardware.JetsonModel))
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Edge Deployment",
			Content: fmt.Sprintf(`### Jetson %s Optimization Tips

Power modes for your Jetson %s:

`+"```bash"+`
# Check current mode
sudo nvpmodel -q

# Max performance (development)
sudo nvpmodel -m 0

# Power-efficient (deployment)
sudo nvpmodel -m 2
`+"```"+`

Convert models with TensorRT for 5-10x faster inference, and keep `+"`tegrastats`"+` running during tests to stay inside thermal limits.`, name, name),
			Reason: fmt.Sprintf("User has Jetson %s", name),
		})
	}

	if profile.Hardware.RobotType == models.RobotNone {
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Testing",
			Content: `### Simulation Testing (For Your Setup)

Without a physical robot, use these simulation strategies:

- **Gazebo Classic**: launch TurtleBot3 in an empty world for lightweight testing.
- **Isaac Sim**: generate synthetic training data and validate sensor fusion against perfect ground truth.
- **Hardware-in-the-loop later**: when you get a robot, only the sensor topics change; the rest of your nodes stay the same.

Build algorithms that work in simulation, then deploy to a real robot with minimal changes.`,
			Reason: "User has no robot",
		})
	} else {
		name := displayName(string(profile.Hardware.RobotType))
		pkg := strings.ReplaceAll(string(profile.Hardware.RobotType), "_", "-")
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Hardware Setup",
			Content: fmt.Sprintf(`### %s Integration

Setup tips for your %s:

`+"```bash"+`
# Install robot-specific ROS 2 packages
sudo apt install ros-humble-%s-*
`+"```"+`

- Run camera calibration before using perception, and verify joint limits match the URDF.
- Use separate USB controllers for multiple cameras; USB bandwidth is the usual bottleneck.
- Monitor motor temperatures during long runs.`, name, name, pkg),
			Reason: fmt.Sprintf("User has %s", name),
		})
	}

	return out
}

// ExperienceAdaptations derives content modifications from experience levels
func ExperienceAdaptations(profile *models.UserProfile) []Adaptation {
	var out []Adaptation

	switch profile.Experience.ROS2 {
	case models.ExperienceNone, models.ExperienceBeginner:
		out = append(out, Adaptation{
			Position: PositionBefore,
			Content: `> **New to ROS 2?** This chapter assumes basic ROS 2 knowledge. If you're just starting:
> 1. Complete the official ROS 2 basics tutorials (2-3 hours)
> 2. Understand nodes, topics, and launch files
> 3. Then return here for Physical AI applications
>
> Quick check: can you create a publisher/subscriber in Python? If not, start with basics first.`,
			Reason: "User is ROS 2 beginner",
		})
	case models.ExperienceAdvanced:
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Further Reading",
			Content: `### Advanced Research

Since you're experienced with ROS 2, explore current research:

- RT-2: Vision-Language-Action Models (Google, 2023)
- Mobile ALOHA (Stanford, 2024), low-cost bimanual manipulation
- Dobb-E: Learning Household Tasks (NYU, 2024)

Open challenges worth watching: real-time VLA inference on edge devices, sim-to-real transfer for contact-rich tasks, and multi-robot coordination with LLM planning.`,
			Reason: "User is ROS 2 expert",
		})
	}

	switch profile.Experience.ML {
	case models.ExperienceNone, models.ExperienceBeginner:
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Machine Learning Integration",
			Content: `### ML Concepts Simplified

Plain-English guide to the terms used in this section:

| Term | What It Means |
|------|---------------|
| Model | A program that learned patterns from examples |
| Inference | Using the trained model on new data |
| Embedding | Converting data to a list of numbers capturing its meaning |
| Fine-tuning | Adjusting a pre-trained model for your task |

Start with pre-trained models, learn inference before training, and prefer high-level tools. You don't need a PhD to use ML in robotics; focus on integration, not theory.`,
			Reason: "User is ML beginner",
		})
	case models.ExperienceAdvanced:
		out = append(out, Adaptation{
			Position:      PositionAfter,
			TargetHeading: "Performance Optimization",
			Content: `### ML Optimization Techniques (Advanced)

- **Quantization**: post-training INT8 quantization gives roughly 4x speedup; quantization-aware training preserves more accuracy. Always quantize on edge.
- **Knowledge distillation**: train a small student against the teacher model's soft predictions when latency is critical.
- **Pruning**: structured pruning of entire channels can remove 50-90% of weights when memory is the constraint.`,
			Reason: "User is ML expert",
		})
	}

	return out
}

// displayName turns an enum value like "orin_nano" into "Orin Nano"
func displayName(value string) string {
	words := strings.Split(value, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
