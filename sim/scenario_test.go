package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RegisterComponentType("test_stub", func(spec ComponentSpec, bus *Bus) (Component, error) {
		return &stubComponent{
			out:   spec.Parameters["out"],
			level: spec.Initial["level"],
		}, nil
	})
}

func minimalScenario() *Scenario {
	return &Scenario{
		Duration: 10,
		Dt:       1.0,
		Components: []ComponentSpec{
			{ID: "src", Type: "test_stub", Parameters: map[string]float64{"out": 2.0}},
			{ID: "down", Type: "test_stub"},
		},
		Connections: []ConnectionSpec{{From: "src", To: "down"}},
	}
}

func TestScenario_Validate_AcceptsMinimal(t *testing.T) {
	assert.NoError(t, minimalScenario().Validate())
}

func TestScenario_Validate_Rejections(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"zero duration", func(s *Scenario) { s.Duration = 0 }},
		{"zero dt", func(s *Scenario) { s.Dt = 0 }},
		{"unknown mode", func(s *Scenario) { s.Mode = "replay" }},
		{"duplicate component id", func(s *Scenario) {
			s.Components = append(s.Components, ComponentSpec{ID: "src", Type: "test_stub"})
		}},
		{"unknown component type", func(s *Scenario) { s.Components[0].Type = "fusion_reactor" }},
		{"malformed storage curve", func(s *Scenario) {
			s.Components[0].StorageCurve = [][]float64{{0, 0, 0}}
		}},
		{"dangling connection", func(s *Scenario) {
			s.Connections = append(s.Connections, ConnectionSpec{From: "src", To: "ghost"})
		}},
		{"unknown agent kind", func(s *Scenario) {
			s.Agents = []AgentSpec{{ID: "a", Kind: "oracle"}}
		}},
		{"perception agent on unknown component", func(s *Scenario) {
			s.Agents = []AgentSpec{{ID: "a", Kind: "perception", Component: "ghost", StateTopic: "t"}}
		}},
		{"control agent without pid", func(s *Scenario) {
			s.Agents = []AgentSpec{{
				ID: "a", Kind: "control",
				ObservationTopic: "o", ObservationKey: "k", ActionTopic: "t",
			}}
		}},
		{"inflow on unknown component", func(s *Scenario) {
			s.Inflows = []InflowSpec{{Component: "ghost", Profile: "constant", Value: 1}}
		}},
		{"unknown inflow profile", func(s *Scenario) {
			s.Inflows = []InflowSpec{{Component: "src", Profile: "sinusoid"}}
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := minimalScenario()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestScenario_BuildHarness_RunsDirect(t *testing.T) {
	s := minimalScenario()
	s.Inflows = []InflowSpec{{Component: "src", Profile: "constant", Value: 1.5}}

	h, err := s.BuildHarness()
	require.NoError(t, err)

	hist, err := h.Run()
	require.NoError(t, err)
	assert.Len(t, hist, 10)
}

func TestScenario_BuildHarness_SurfacesGraphErrors(t *testing.T) {
	s := minimalScenario()
	s.Connections = append(s.Connections, ConnectionSpec{From: "down", To: "src"})

	_, err := s.BuildHarness()
	assert.ErrorIs(t, err, ErrGraphCycle)
}

func TestScenario_BuildHarness_WiresAgents(t *testing.T) {
	// GIVEN a scenario with a full perception/control/supervisory stack
	s := minimalScenario()
	s.Agents = []AgentSpec{
		{
			ID: "twin", Kind: "perception",
			Component: "src", StateTopic: "state.src",
		},
		{
			ID: "lca", Kind: "control",
			ObservationTopic: "state.src", ObservationKey: "level",
			ActionTopic:  "action.src",
			CommandTopic: "command.src",
			PID:          &PIDSpec{Kp: 1.0, Setpoint: 5.0, MinOutput: 0, MaxOutput: 1},
		},
		{
			ID: "dispatcher", Kind: "supervisory", Mode: "rule",
			Subscriptions: []StateSub{{Topic: "state.src", Key: "level"}},
			Rules: []Rule{{
				Name:     "always",
				When:     Condition{Always: true},
				Commands: []Command{{Topic: "command.src", Message: Message{DefaultCommandKey: 3.0}}},
			}},
		},
	}

	h, err := s.BuildHarness()
	require.NoError(t, err)

	// WHEN the agent-driven run executes
	hist, err := h.RunMAS()
	require.NoError(t, err)
	assert.Len(t, hist, 10)
}

func TestScenario_BuildHarness_InvalidDispatcherFailsBuild(t *testing.T) {
	s := minimalScenario()
	s.Agents = []AgentSpec{{
		ID: "dispatcher", Kind: "supervisory", Mode: "rule",
		Subscriptions: []StateSub{{Topic: "state.src", Key: "level"}},
		// Rule mode without rules is rejected by Validate at Build.
	}}

	_, err := s.BuildHarness()
	assert.Error(t, err)
}

func TestLoadScenario_YAML(t *testing.T) {
	src := `
duration: 20
dt: 2.0
mode: mas
components:
  - id: src
    type: test_stub
    initial:
      level: 4.0
    parameters:
      out: 2.0
  - id: down
    type: test_stub
connections:
  - from: src
    to: down
inflows:
  - component: src
    profile: pulse
    base: 1.0
    peak: 9.0
    start: 4.0
    end: 8.0
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, 20.0, s.Duration)
	assert.Equal(t, 2.0, s.Dt)
	assert.Equal(t, "mas", s.Mode)
	require.Len(t, s.Components, 2)
	assert.Equal(t, 4.0, s.Components[0].Initial["level"])
	require.Len(t, s.Inflows, 1)
	assert.Equal(t, 9.0, s.Inflows[0].Peak)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components: {not: [valid"), 0o644))

	_, err := LoadScenario(path)
	assert.Error(t, err)
}
