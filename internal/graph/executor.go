package graph

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dyike/NexusGo/internal/models"
)

// End is the terminal edge marker. Resolving to End stops the traversal.
const End = "END"

// Step executes one unit of work over the run state and returns its write
// set. Steps never mutate the state they receive; the executor merges.
type Step func(ctx context.Context, state *models.AgentState) (*models.Delta, error)

// RouteFunc picks the successor of a step from the run state.
type RouteFunc func(state *models.AgentState) string

// Edge is either a fixed successor or a routing function constrained to a
// declared allow-set.
type Edge struct {
	To    string
	Route RouteFunc
	Allow []string
}

// StaticEdge links a step to a single fixed successor.
func StaticEdge(to string) Edge {
	return Edge{To: to}
}

// RoutedEdge links a step to a routing function. The function must return a
// member of allow; anything else is a configuration error that aborts the
// run.
func RoutedEdge(route RouteFunc, allow ...string) Edge {
	return Edge{Route: route, Allow: allow}
}

// ConfigError reports an inconsistency in the workflow graph itself. It is
// fatal: data problems degrade to safe defaults inside steps, but a broken
// graph must never limp on.
type ConfigError struct {
	Step     string
	Returned string
	Allowed  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("graph misconfiguration at step %q: router returned %q, allowed: %s",
		e.Step, e.Returned, strings.Join(e.Allowed, ", "))
}

// Event is one streaming emission: the step that just finished and a
// snapshot of the state after its delta was merged.
type Event struct {
	Step  string
	State *models.AgentState
}

// Executor drives a step table and edge table over a run state.
type Executor struct {
	steps map[string]Step
	edges map[string]Edge
	debug bool
}

// NewExecutor validates the tables up front: every static successor and
// every allow-set member must resolve to a registered step or End, and every
// step must have an outgoing edge.
func NewExecutor(steps map[string]Step, edges map[string]Edge) (*Executor, error) {
	resolves := func(key string) bool {
		if key == End {
			return true
		}
		_, ok := steps[key]
		return ok
	}
	for key := range steps {
		edge, ok := edges[key]
		if !ok {
			return nil, fmt.Errorf("step %q has no outgoing edge", key)
		}
		if edge.Route == nil {
			if !resolves(edge.To) {
				return nil, fmt.Errorf("step %q links to unknown step %q", key, edge.To)
			}
			continue
		}
		if len(edge.Allow) == 0 {
			return nil, fmt.Errorf("routed edge of step %q declares no allow-set", key)
		}
		for _, target := range edge.Allow {
			if !resolves(target) {
				return nil, fmt.Errorf("allow-set of step %q contains unknown step %q", key, target)
			}
		}
	}
	for key := range edges {
		if _, ok := steps[key]; !ok {
			return nil, fmt.Errorf("edge declared for unknown step %q", key)
		}
	}
	return &Executor{steps: steps, edges: edges}, nil
}

// SetDebug toggles per-step progress logging.
func (e *Executor) SetDebug(debug bool) { e.debug = debug }

// Run executes the graph from entry to the terminal marker and returns the
// final state. The loop owns all state mutation: it applies each step's
// delta, then resolves the successor. No retries happen here; transient
// failures are the collaborators' problem and surface as error text inside
// step output.
func (e *Executor) Run(ctx context.Context, entry string, state *models.AgentState) (*models.AgentState, error) {
	return e.run(ctx, entry, state, nil)
}

// RunStream executes the identical step sequence as Run, emitting an Event
// after every step. The events channel is closed when the run finishes; the
// error channel then carries at most one error.
func (e *Executor) RunStream(ctx context.Context, entry string, state *models.AgentState) (<-chan Event, <-chan error) {
	events := make(chan Event)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		defer close(errc)
		_, err := e.run(ctx, entry, state, func(step string, snapshot *models.AgentState) {
			select {
			case events <- Event{Step: step, State: snapshot}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()
	return events, errc
}

func (e *Executor) run(ctx context.Context, entry string, state *models.AgentState, emit func(string, *models.AgentState)) (*models.AgentState, error) {
	if _, ok := e.steps[entry]; !ok {
		return nil, fmt.Errorf("unknown entry step %q", entry)
	}

	current := entry
	for current != End {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		step := e.steps[current]
		if e.debug {
			log.Printf("[Graph] executing %s", current)
		}
		delta, err := step(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", current, err)
		}
		if err := state.Apply(delta); err != nil {
			return nil, fmt.Errorf("merge delta of step %q: %w", current, err)
		}
		if emit != nil {
			emit(current, state.Clone())
		}

		next, err := e.resolveNext(current, state)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return state, nil
}

func (e *Executor) resolveNext(current string, state *models.AgentState) (string, error) {
	edge := e.edges[current]
	if edge.Route == nil {
		return edge.To, nil
	}
	next := edge.Route(state)
	for _, allowed := range edge.Allow {
		if next == allowed {
			return next, nil
		}
	}
	return "", &ConfigError{Step: current, Returned: next, Allowed: edge.Allow}
}
