package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dyike/NexusGo/internal/models"
)

func recordingStep(name string, visited *[]string) Step {
	return func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		*visited = append(*visited, name)
		return &models.Delta{Reports: map[string]string{name: "done"}}, nil
	}
}

func newState() *models.AgentState {
	return models.NewAgentState("AAPL", "US", models.RunConfig{SimulatedDate: "2026-08-25"})
}

func TestRunFollowsStaticEdges(t *testing.T) {
	var visited []string
	steps := map[string]Step{
		"a": recordingStep("a", &visited),
		"b": recordingStep("b", &visited),
		"c": recordingStep("c", &visited),
	}
	edges := map[string]Edge{
		"a": StaticEdge("b"),
		"b": StaticEdge("c"),
		"c": StaticEdge(End),
	}

	exec, err := NewExecutor(steps, edges)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	final, err := exec.Run(context.Background(), "a", newState())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(visited) != "[a b c]" {
		t.Errorf("visited = %v", visited)
	}
	for _, key := range []string{"a", "b", "c"} {
		if final.Reports[key] != "done" {
			t.Errorf("report %q not merged", key)
		}
	}
}

func TestRoutedEdgeFollowsRouter(t *testing.T) {
	var visited []string
	steps := map[string]Step{
		"start": recordingStep("start", &visited),
		"left":  recordingStep("left", &visited),
		"right": recordingStep("right", &visited),
	}
	edges := map[string]Edge{
		"start": RoutedEdge(func(state *models.AgentState) string {
			if state.RunConfig.SocialOn {
				return "left"
			}
			return "right"
		}, "left", "right"),
		"left":  StaticEdge(End),
		"right": StaticEdge(End),
	}

	exec, err := NewExecutor(steps, edges)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	if _, err := exec.Run(context.Background(), "start", newState()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(visited) != "[start right]" {
		t.Errorf("visited = %v", visited)
	}
}

func TestRouterOutsideAllowSetAborts(t *testing.T) {
	steps := map[string]Step{
		"start": recordingStep("start", new([]string)),
		"next":  recordingStep("next", new([]string)),
	}
	edges := map[string]Edge{
		"start": RoutedEdge(func(*models.AgentState) string { return "rogue" }, "next"),
		"next":  StaticEdge(End),
	}

	exec, err := NewExecutor(steps, edges)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	_, err = exec.Run(context.Background(), "start", newState())
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Step != "start" || cfgErr.Returned != "rogue" {
		t.Errorf("config error = %+v", cfgErr)
	}
}

func TestNewExecutorRejectsBrokenTables(t *testing.T) {
	ok := recordingStep("x", new([]string))

	cases := []struct {
		name  string
		steps map[string]Step
		edges map[string]Edge
	}{
		{
			name:  "step without edge",
			steps: map[string]Step{"a": ok},
			edges: map[string]Edge{},
		},
		{
			name:  "static edge to unknown step",
			steps: map[string]Step{"a": ok},
			edges: map[string]Edge{"a": StaticEdge("ghost")},
		},
		{
			name:  "routed edge with empty allow-set",
			steps: map[string]Step{"a": ok},
			edges: map[string]Edge{"a": RoutedEdge(func(*models.AgentState) string { return End })},
		},
		{
			name:  "allow-set member unknown",
			steps: map[string]Step{"a": ok},
			edges: map[string]Edge{"a": RoutedEdge(func(*models.AgentState) string { return End }, "ghost")},
		},
		{
			name:  "edge for unknown step",
			steps: map[string]Step{"a": ok},
			edges: map[string]Edge{"a": StaticEdge(End), "ghost": StaticEdge(End)},
		},
	}
	for _, tc := range cases {
		if _, err := NewExecutor(tc.steps, tc.edges); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestRunStopsOnStepError(t *testing.T) {
	boom := errors.New("boom")
	var visited []string
	steps := map[string]Step{
		"a": recordingStep("a", &visited),
		"b": func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
			return nil, boom
		},
		"c": recordingStep("c", &visited),
	}
	edges := map[string]Edge{
		"a": StaticEdge("b"),
		"b": StaticEdge("c"),
		"c": StaticEdge(End),
	}

	exec, _ := NewExecutor(steps, edges)
	_, err := exec.Run(context.Background(), "a", newState())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if fmt.Sprint(visited) != "[a]" {
		t.Errorf("visited = %v, step after failure must not run", visited)
	}
}

func TestRunAbortsOnDuplicateReportKey(t *testing.T) {
	writer := func(ctx context.Context, state *models.AgentState) (*models.Delta, error) {
		return &models.Delta{Reports: map[string]string{"shared": "v"}}, nil
	}
	steps := map[string]Step{"a": writer, "b": writer}
	edges := map[string]Edge{"a": StaticEdge("b"), "b": StaticEdge(End)}

	exec, _ := NewExecutor(steps, edges)
	if _, err := exec.Run(context.Background(), "a", newState()); err == nil {
		t.Fatal("expected merge error on duplicate report key")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec, _ := NewExecutor(
		map[string]Step{"a": recordingStep("a", new([]string))},
		map[string]Edge{"a": StaticEdge(End)},
	)
	if _, err := exec.Run(ctx, "a", newState()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunStreamMatchesRunSequence(t *testing.T) {
	build := func(visited *[]string) *Executor {
		steps := map[string]Step{
			"a": recordingStep("a", visited),
			"b": recordingStep("b", visited),
			"c": recordingStep("c", visited),
		}
		edges := map[string]Edge{
			"a": StaticEdge("b"),
			"b": StaticEdge("c"),
			"c": StaticEdge(End),
		}
		exec, err := NewExecutor(steps, edges)
		if err != nil {
			t.Fatalf("NewExecutor: %v", err)
		}
		return exec
	}

	var runVisited []string
	if _, err := build(&runVisited).Run(context.Background(), "a", newState()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var streamVisited []string
	events, errc := build(&streamVisited).RunStream(context.Background(), "a", newState())

	var emitted []string
	var snapshots []*models.AgentState
	for ev := range events {
		emitted = append(emitted, ev.Step)
		snapshots = append(snapshots, ev.State)
	}
	if err := <-errc; err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	if fmt.Sprint(emitted) != fmt.Sprint(runVisited) {
		t.Errorf("stream sequence %v != run sequence %v", emitted, runVisited)
	}

	// Each snapshot reflects the state after its own step only.
	if _, ok := snapshots[0].Reports["b"]; ok {
		t.Error("first snapshot leaked a later step's write")
	}
	snapshots[0].Reports["tamper"] = "x"
	if _, ok := snapshots[1].Reports["tamper"]; ok {
		t.Error("snapshots must be independent clones")
	}
}
