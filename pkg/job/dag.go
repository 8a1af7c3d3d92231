package job

import (
	"fmt"
	"sort"

	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// Graph is the job DAG induced by a producer map (spec §3): each output
// typed path maps to the single job that produces it, and each job's
// inputs determine its upstream edges.
type Graph struct {
	Jobs     []*Job
	producer map[string]*Job // output key -> producing job
}

// BuildGraph constructs the producer map for jobs and asserts spec §8
// invariant 1: no two jobs may declare the same output.
func BuildGraph(jobs []*Job) (*Graph, error) {
	producer := make(map[string]*Job, len(jobs))
	inPlaceCount := 0

	for _, j := range jobs {
		for _, out := range j.Outputs {
			key := out.Key()
			if existing, ok := producer[key]; ok && existing != j {
				return nil, fmt.Errorf("producer map is not a function: output %q is declared by both %q and %q", key, existing, j)
			}
			producer[key] = j
		}
		if j.RequiresInPlaceExecution {
			inPlaceCount++
		}
	}
	if inPlaceCount > 1 {
		return nil, fmt.Errorf("at most one job may require in-place execution, found %d", inPlaceCount)
	}

	return &Graph{Jobs: jobs, producer: producer}, nil
}

// ProducerOf returns the job that produces path, if any is in the plan.
// An input not found here is assumed to already exist on disk and is
// not waited on by the executor (spec §4.E readiness rule).
func (g *Graph) ProducerOf(path typedpath.TypedPath) (*Job, bool) {
	p, ok := g.producer[path.Key()]
	return p, ok
}

// Dependencies returns the upstream jobs that produce j's inputs,
// deduplicated and in a stable order.
func (g *Graph) Dependencies(j *Job) []*Job {
	seen := make(map[*Job]bool)
	var deps []*Job
	for _, in := range j.Inputs {
		if producer, ok := g.producer[in.Key()]; ok && producer != j && !seen[producer] {
			seen[producer] = true
			deps = append(deps, producer)
		}
	}
	sort.Slice(deps, func(a, b int) bool { return deps[a].String() < deps[b].String() })
	return deps
}

// DetectCycles reports an error if the job graph contains a dependency
// cycle, found by DFS with a three-color visit state.
func (g *Graph) DetectCycles() error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[*Job]int, len(g.Jobs))
	for _, j := range g.Jobs {
		state[j] = unvisited
	}

	var visit func(j *Job) error
	visit = func(j *Job) error {
		state[j] = visiting
		for _, in := range j.Inputs {
			if g.producer[in.Key()] == j {
				return fmt.Errorf("cycle detected in job graph: %q consumes its own output %q", j, in.Key())
			}
		}
		for _, dep := range g.Dependencies(j) {
			switch state[dep] {
			case visiting:
				return fmt.Errorf("cycle detected in job graph: %q depends (transitively) on itself through %q", j, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[j] = visited
		return nil
	}

	for _, j := range g.Jobs {
		if state[j] == unvisited {
			if err := visit(j); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopologicalOrder returns the jobs in dependency order (producers
// before consumers), breaking ties deterministically by each job's
// String() so that two runs over an equal job set produce an identical
// order (spec §8 invariant 4).
func (g *Graph) TopologicalOrder() ([]*Job, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	inDegree := make(map[*Job]int, len(g.Jobs))
	dependents := make(map[*Job][]*Job)
	for _, j := range g.Jobs {
		deps := g.Dependencies(j)
		inDegree[j] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], j)
		}
	}

	ready := make([]*Job, 0)
	for _, j := range g.Jobs {
		if inDegree[j] == 0 {
			ready = append(ready, j)
		}
	}

	result := make([]*Job, 0, len(g.Jobs))
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool { return ready[a].String() < ready[b].String() })
		next := ready[0]
		ready = ready[1:]
		result = append(result, next)

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	return result, nil
}
