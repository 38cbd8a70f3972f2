package container

import (
	"reflect"

	"github.com/pkg/errors"
)

// Validate checks the registration table without constructing anything:
// every constructor parameter must be registered, overridden, or
// self-constructible; the static dependency graph must be acyclic; and no
// singleton may transitively depend on a scoped binding. Meant as a boot
// smoke check; the resolver enforces the same rules at runtime.
//
//	if err := c.Validate(); err != nil {
//	    log.Fatal(err)
//	}
func (c *Container) Validate() error {
	graph := c.snapshot()

	var issues []error
	for key, b := range graph {
		for _, p := range b.deps {
			if _, ok := graph[p.key]; ok {
				continue
			}
			if _, ok := selfBinding(p.t); ok {
				continue
			}
			issues = append(issues, errors.Wrapf(&UnregisteredTypeError{Key: p.key}, "required by [%s]", key))
		}
	}

	issues = append(issues, findCycles(graph)...)
	issues = append(issues, findCaptives(graph)...)

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// ── Static graph ──────────────────────────────────────────────────────────────

type graphDep struct {
	key string
	t   reflect.Type
}

type graphNode struct {
	lifetime Lifetime
	deps     []graphDep
}

// snapshot flattens the effective registrations (overrides shadowing
// bindings) into a static dependency graph. Pre-built instances and
// instance overrides have no edges.
func (c *Container) snapshot() map[string]*graphNode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	graph := make(map[string]*graphNode, len(c.bindings))
	add := func(key string, b *binding) {
		node := &graphNode{lifetime: b.lifetime}
		for _, p := range b.params() {
			if p == ctxType {
				continue
			}
			node.deps = append(node.deps, graphDep{key: keyFor(p), t: p})
		}
		graph[key] = node
	}

	for key, b := range c.bindings {
		add(key, b)
	}
	for key, o := range c.overrides {
		if o.isInstance {
			graph[key] = &graphNode{lifetime: Singleton}
			continue
		}
		add(key, o.binding)
	}
	return graph
}

// findCycles runs a colored DFS over the graph and reports each cycle once,
// with its path.
func findCycles(graph map[string]*graphNode) []error {
	const (
		white = iota // unvisited
		grey         // on the current path
		black        // fully explored
	)
	color := make(map[string]int, len(graph))
	var issues []error
	var path []string

	var visit func(key string)
	visit = func(key string) {
		color[key] = grey
		path = append(path, key)
		node := graph[key]
		for _, dep := range node.deps {
			if _, ok := graph[dep.key]; !ok {
				continue
			}
			switch color[dep.key] {
			case white:
				visit(dep.key)
			case grey:
				start := 0
				for i, k := range path {
					if k == dep.key {
						start = i
						break
					}
				}
				chain := append(append([]string{}, path[start:]...), dep.key)
				issues = append(issues, &CircularDependencyError{Chain: chain})
			}
		}
		path = path[:len(path)-1]
		color[key] = black
	}

	for key := range graph {
		if color[key] == white {
			visit(key)
		}
	}
	return issues
}

// findCaptives reports singletons that can reach a scoped binding.
func findCaptives(graph map[string]*graphNode) []error {
	var issues []error
	for key, node := range graph {
		if node.lifetime != Singleton {
			continue
		}
		if scopedKey, ok := reachesScoped(graph, key, make(map[string]bool)); ok {
			issues = append(issues, &LifetimeConflictError{Singleton: key, Scoped: scopedKey})
		}
	}
	return issues
}

func reachesScoped(graph map[string]*graphNode, key string, seen map[string]bool) (string, bool) {
	if seen[key] {
		return "", false
	}
	seen[key] = true
	node, ok := graph[key]
	if !ok {
		return "", false
	}
	for _, dep := range node.deps {
		next, ok := graph[dep.key]
		if !ok {
			continue
		}
		if next.lifetime == Scoped {
			return dep.key, true
		}
		if sk, found := reachesScoped(graph, dep.key, seen); found {
			return sk, true
		}
	}
	return "", false
}
