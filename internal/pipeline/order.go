package pipeline

import (
	"sort"
	"strings"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Resolve returns passes in an order where every resource is produced
// before it is required and every MustRunAfter edge holds. Ties keep the
// declared order.
func Resolve(passes []Pass) ([]Pass, error) {
	if len(passes) == 0 {
		return []Pass{}, nil
	}

	index := make(map[string]int, len(passes))
	for i, p := range passes {
		if _, dup := index[p.Name()]; dup {
			return nil, ferrors.InternalError("duplicate pass name").
				WithContext("pass", p.Name()).Build()
		}
		index[p.Name()] = i
	}

	producer := map[Resource]string{}
	for _, p := range passes {
		for _, r := range p.Dependencies().Produces {
			if other, dup := producer[r]; dup {
				return nil, ferrors.InternalError("resource produced by two passes").
					WithContext("resource", string(r)).
					WithContext("passes", other+","+p.Name()).Build()
			}
			producer[r] = p.Name()
		}
	}

	graph := make([][]int, len(passes))
	inDegree := make([]int, len(passes))
	addEdge := func(from, to int) {
		graph[from] = append(graph[from], to)
		inDegree[to]++
	}

	for i, p := range passes {
		deps := p.Dependencies()
		for _, r := range deps.Requires {
			name, ok := producer[r]
			if !ok {
				return nil, ferrors.InternalError("no pass produces a required resource").
					WithContext("pass", p.Name()).
					WithContext("resource", string(r)).
					WithCause(ferrors.ErrMissingPrerequisite).Build()
			}
			addEdge(index[name], i)
		}
		for _, dep := range deps.MustRunAfter {
			j, ok := index[dep]
			if !ok {
				return nil, ferrors.InternalError("pass depends on a missing pass").
					WithContext("pass", p.Name()).
					WithContext("depends_on", dep).
					WithCause(ferrors.ErrMissingPrerequisite).Build()
			}
			addEdge(j, i)
		}
	}

	// Kahn's algorithm; the ready set is kept sorted by declared index.
	var ready []int
	for i := range passes {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]Pass, 0, len(passes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		result = append(result, passes[current])

		for _, next := range graph[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
				sort.Ints(ready)
			}
		}
	}

	if len(result) != len(passes) {
		var stuck []string
		for i, p := range passes {
			if inDegree[i] > 0 {
				stuck = append(stuck, p.Name())
			}
		}
		sort.Strings(stuck)
		return nil, ferrors.InternalError("circular dependency between passes").
			WithContext("passes", strings.Join(stuck, ",")).Build()
	}
	return result, nil
}
