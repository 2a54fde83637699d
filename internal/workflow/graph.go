package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// Stage is one node of the execution graph. Run receives a read-only state
// snapshot and returns a partial update covering only the stage's declared
// write set. Recover, when set, turns a Run failure into a sentinel update
// instead of aborting the whole graph.
type Stage struct {
	Name    string
	Reads   []Field
	Writes  []Field
	Run     func(ctx context.Context, s *State) (Update, error)
	Recover func(s *State, err error) Update
}

// Graph is a validated fan-out/fan-in execution plan. Stages on the same
// topological level run concurrently; the engine barriers on the whole
// level before merging any of its updates.
type Graph struct {
	stages []*Stage
	levels [][]*Stage
	pool   *ants.Pool
}

// NewGraph validates the stage topology at construction: the edge relation
// must be acyclic, every single-writer field must have exactly one writer,
// and every stage's read set must be covered by the initial fields or the
// write sets of its transitive predecessors. An invalid graph never runs.
func NewGraph(stages []*Stage, edges map[string][]string, initial []Field, pool *ants.Pool) (*Graph, error) {
	byName := make(map[string]*Stage, len(stages))
	for _, st := range stages {
		if st.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if st.Run == nil {
			return nil, fmt.Errorf("stage %s has no run function", st.Name)
		}
		if _, dup := byName[st.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name %s", st.Name)
		}
		byName[st.Name] = st
	}
	for from, tos := range edges {
		if _, ok := byName[from]; !ok {
			return nil, fmt.Errorf("edge from unknown stage %s", from)
		}
		for _, to := range tos {
			if _, ok := byName[to]; !ok {
				return nil, fmt.Errorf("edge %s -> %s: unknown stage %s", from, to, to)
			}
		}
	}

	writers := make(map[Field][]string)
	for _, st := range stages {
		for _, f := range st.Writes {
			if _, known := fieldPolicies[f]; !known {
				return nil, fmt.Errorf("stage %s writes unknown field %s", st.Name, f)
			}
			writers[f] = append(writers[f], st.Name)
		}
	}
	for f, names := range writers {
		if fieldPolicies[f] == Overwrite && len(names) > 1 {
			return nil, fmt.Errorf("field %s has %d writers (%v), expected one", f, len(names), names)
		}
	}

	levels, err := topoLevels(stages, edges)
	if err != nil {
		return nil, err
	}

	if err := checkReadCoverage(stages, edges, initial); err != nil {
		return nil, err
	}

	return &Graph{stages: stages, levels: levels, pool: pool}, nil
}

// topoLevels groups stages by longest path from a root, which is exactly
// the barrier structure Execute needs. A leftover node after the sweep
// means a cycle.
func topoLevels(stages []*Stage, edges map[string][]string) ([][]*Stage, error) {
	indegree := make(map[string]int, len(stages))
	for _, st := range stages {
		indegree[st.Name] = 0
	}
	for _, tos := range edges {
		for _, to := range tos {
			indegree[to]++
		}
	}
	// keep declaration order within each sweep so merge order is stable
	current := make([]*Stage, 0, len(stages))
	for _, st := range stages {
		if indegree[st.Name] == 0 {
			current = append(current, st)
		}
	}

	var levels [][]*Stage
	visited := 0
	for len(current) > 0 {
		levels = append(levels, current)
		visited += len(current)
		nextSet := make(map[string]bool)
		for _, st := range current {
			for _, to := range edges[st.Name] {
				indegree[to]--
				if indegree[to] == 0 {
					nextSet[to] = true
				}
			}
		}
		var next []*Stage
		for _, st := range stages {
			if nextSet[st.Name] {
				next = append(next, st)
			}
		}
		current = next
	}
	if visited != len(stages) {
		return nil, fmt.Errorf("stage graph contains a cycle")
	}
	return levels, nil
}

// checkReadCoverage verifies that each stage can only observe fields that
// are guaranteed committed before it runs.
func checkReadCoverage(stages []*Stage, edges map[string][]string, initial []Field) error {
	preds := make(map[string][]string)
	for from, tos := range edges {
		for _, to := range tos {
			preds[to] = append(preds[to], from)
		}
	}
	byName := make(map[string]*Stage, len(stages))
	for _, st := range stages {
		byName[st.Name] = st
	}

	available := make(map[string]map[Field]bool, len(stages))
	var reachable func(name string) map[Field]bool
	reachable = func(name string) map[Field]bool {
		if got, ok := available[name]; ok {
			return got
		}
		set := make(map[Field]bool)
		available[name] = set
		for _, p := range preds[name] {
			for _, f := range byName[p].Writes {
				set[f] = true
			}
			for f := range reachable(p) {
				set[f] = true
			}
		}
		return set
	}

	init := make(map[Field]bool, len(initial))
	for _, f := range initial {
		init[f] = true
	}
	for _, st := range stages {
		ahead := reachable(st.Name)
		for _, f := range st.Reads {
			if !init[f] && !ahead[f] {
				return fmt.Errorf("stage %s reads field %s which no predecessor writes", st.Name, f)
			}
		}
	}
	return nil
}

type stageResult struct {
	stage  *Stage
	update Update
	err    error
}

// Execute runs the graph level by level. Within a level every stage gets
// its own snapshot, runs concurrently on the pool, and the engine merges
// all results in declaration order only after the full level has finished.
// A failed stage without a Recover hook aborts the run with an error naming
// the stage, after the successful siblings of its level have been merged.
func (g *Graph) Execute(ctx context.Context, initial *State) (*State, error) {
	state := initial.snapshot()
	state.initAccumulators()
	for _, level := range g.levels {
		// prerequisite check for the whole level before anything launches
		for _, st := range level {
			if err := g.checkReads(st, state); err != nil {
				return nil, err
			}
		}

		results := make([]stageResult, len(level))
		if len(level) == 1 {
			st := level[0]
			update, err := runStage(ctx, st, state.snapshot())
			results[0] = stageResult{stage: st, update: update, err: err}
		} else {
			var wg sync.WaitGroup
			for i, st := range level {
				snap := state.snapshot()
				wg.Add(1)
				task := func() {
					defer wg.Done()
					update, err := runStage(ctx, st, snap)
					results[i] = stageResult{stage: st, update: update, err: err}
				}
				if g.pool != nil {
					if err := g.pool.Submit(task); err != nil {
						wg.Done()
						results[i] = stageResult{stage: st, err: fmt.Errorf("submit: %w", err)}
					}
				} else {
					go task()
				}
			}
			wg.Wait()
		}

		// full barrier reached: merge in declaration order
		var failed *stageResult
		for i := range results {
			res := &results[i]
			if res.err != nil {
				if res.stage.Recover != nil {
					klog.V(6).Infof("stage %s failed, recovering: %v", res.stage.Name, res.err)
					res.update = res.stage.Recover(state, res.err)
					res.err = nil
				} else if failed == nil {
					failed = res
					continue
				} else {
					continue
				}
			}
			if err := g.merge(res.stage, res.update, state); err != nil {
				return nil, err
			}
		}
		if failed != nil {
			return nil, fmt.Errorf("stage %s failed: %w", failed.stage.Name, failed.err)
		}
	}
	return state, nil
}

func (g *Graph) checkReads(st *Stage, state *State) error {
	for _, f := range st.Reads {
		if !state.committed(f) {
			return fmt.Errorf("stage %s: required field %s is not set", st.Name, f)
		}
	}
	return nil
}

func (g *Graph) merge(st *Stage, update Update, state *State) error {
	declared := make(map[Field]bool, len(st.Writes))
	for _, f := range st.Writes {
		declared[f] = true
	}
	// merge in declared order so repeated runs are byte-identical
	for _, f := range st.Writes {
		value, ok := update[f]
		if !ok {
			continue
		}
		if err := state.apply(f, value); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
	}
	for f := range update {
		if !declared[f] {
			return fmt.Errorf("stage %s wrote undeclared field %s", st.Name, f)
		}
	}
	return nil
}

// runStage isolates stage panics so one bad branch cannot take down the
// process while siblings are mid-flight.
func runStage(ctx context.Context, st *Stage, snap *State) (update Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return st.Run(ctx, snap)
}
