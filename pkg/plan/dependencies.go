package plan

import "fmt"

// levels computes a dependency-level layering of steps: level 0 contains
// steps with no dependencies, level N contains steps whose dependencies
// are all satisfied by levels < N. Steps within a level may run
// concurrently; levels themselves are a barrier.
func levels(steps []Step) ([][]string, error) {
	byID := make(map[string]*Step, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}

	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", s.ID, dep)
			}
		}
	}

	if err := checkCycles(steps, byID); err != nil {
		return nil, err
	}

	level := make(map[string]int, len(steps))
	var assign func(id string) int
	assign = func(id string) int {
		if lv, ok := level[id]; ok {
			return lv
		}
		step := byID[id]
		maxDep := -1
		for _, dep := range step.Dependencies {
			if lv := assign(dep); lv > maxDep {
				maxDep = lv
			}
		}
		lv := maxDep + 1
		level[id] = lv
		return lv
	}

	maxLevel := 0
	for _, s := range steps {
		if lv := assign(s.ID); lv > maxLevel {
			maxLevel = lv
		}
	}

	result := make([][]string, maxLevel+1)
	for _, s := range steps {
		lv := level[s.ID]
		result[lv] = append(result[lv], s.ID)
	}

	return result, nil
}

// checkCycles runs the DFS cycle check every step must pass before any
// scheduling begins (§3 I5 depends on a well-formed dependency graph).
func checkCycles(steps []Step, byID map[string]*Step) error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(id string) bool
	hasCycle = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		step := byID[id]
		for _, dep := range step.Dependencies {
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, s := range steps {
		if !visited[s.ID] && hasCycle(s.ID) {
			return fmt.Errorf("circular dependency detected involving step %s", s.ID)
		}
	}
	return nil
}
