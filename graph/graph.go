// Package graph is a small single-path state machine. Nodes transform a
// shared state value; condition nodes route between successors. Execution
// follows exactly one path from the entry node to End.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/company-researcher/pkg/logging"
	"github.com/sweetpotato0/company-researcher/pkg/telemetry"
)

// End is the terminal node name. Routing to End stops execution.
const End = "__end__"

// defaultMaxVisits bounds total node executions so a cyclic route cannot
// spin forever.
const defaultMaxVisits = 64

// NodeFunc transforms the state and returns the updated value.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// ConditionFunc inspects the state and returns the name of the next node.
type ConditionFunc[S any] func(ctx context.Context, state S) (string, error)

// Hook runs after every node completes, before routing. Used for
// checkpointing.
type Hook[S any] func(ctx context.Context, node string, state S) error

type node[S any] struct {
	name string
	run  NodeFunc[S]
	// cond routes to one of routes' values. Nil for linear nodes.
	cond   ConditionFunc[S]
	routes map[string]string
	next   string
}

// Graph is an immutable, runnable state machine. Build one with a Builder.
type Graph[S any] struct {
	nodes     map[string]*node[S]
	entry     string
	maxVisits int
	hook      Hook[S]
	logger    *slog.Logger
}

// Builder assembles a Graph. Errors are collected and surfaced by Build.
type Builder[S any] struct {
	nodes     map[string]*node[S]
	entry     string
	maxVisits int
	hook      Hook[S]
	errs      []error
}

// NewBuilder creates an empty builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{
		nodes:     make(map[string]*node[S]),
		maxVisits: defaultMaxVisits,
	}
}

// AddNode registers a state-transforming node.
func (b *Builder[S]) AddNode(name string, fn NodeFunc[S]) *Builder[S] {
	if name == "" || name == End {
		b.errs = append(b.errs, fmt.Errorf("invalid node name %q", name))
		return b
	}
	if _, ok := b.nodes[name]; ok {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
		return b
	}
	b.nodes[name] = &node[S]{name: name, run: fn}
	return b
}

// AddEdge sets the unconditional successor of a node. To may be End.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	n, ok := b.nodes[from]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("edge from unknown node %q", from))
		return b
	}
	if n.cond != nil {
		b.errs = append(b.errs, fmt.Errorf("node %q already has a condition", from))
		return b
	}
	n.next = to
	return b
}

// AddConditionalEdge routes from a node through a condition. The condition's
// return value is looked up in routes to find the successor.
func (b *Builder[S]) AddConditionalEdge(from string, cond ConditionFunc[S], routes map[string]string) *Builder[S] {
	n, ok := b.nodes[from]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("conditional edge from unknown node %q", from))
		return b
	}
	if n.next != "" {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an edge", from))
		return b
	}
	n.cond = cond
	n.routes = routes
	return b
}

// SetEntry marks the node execution starts from.
func (b *Builder[S]) SetEntry(name string) *Builder[S] {
	b.entry = name
	return b
}

// SetMaxVisits overrides the loop guard.
func (b *Builder[S]) SetMaxVisits(n int) *Builder[S] {
	if n > 0 {
		b.maxVisits = n
	}
	return b
}

// SetHook installs an after-node callback.
func (b *Builder[S]) SetHook(h Hook[S]) *Builder[S] {
	b.hook = h
	return b
}

// Build validates the topology and returns the graph.
func (b *Builder[S]) Build() (*Graph[S], error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.entry == "" {
		return nil, fmt.Errorf("graph has no entry node")
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, fmt.Errorf("entry node %q not registered", b.entry)
	}
	for name, n := range b.nodes {
		if n.cond == nil && n.next == "" {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
		if n.cond == nil && n.next != End {
			if _, ok := b.nodes[n.next]; !ok {
				return nil, fmt.Errorf("node %q routes to unknown node %q", name, n.next)
			}
		}
		for _, to := range n.routes {
			if to != End {
				if _, ok := b.nodes[to]; !ok {
					return nil, fmt.Errorf("node %q routes to unknown node %q", name, to)
				}
			}
		}
	}
	return &Graph[S]{
		nodes:     b.nodes,
		entry:     b.entry,
		maxVisits: b.maxVisits,
		hook:      b.hook,
		logger:    logging.WithComponent("graph"),
	}, nil
}

// Run executes the graph from the entry node and returns the final state.
func (g *Graph[S]) Run(ctx context.Context, state S) (S, error) {
	current := g.entry
	visits := 0
	for current != End {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		visits++
		if visits > g.maxVisits {
			return state, fmt.Errorf("graph exceeded %d node visits", g.maxVisits)
		}

		n := g.nodes[current]
		g.logger.Debug("executing node", "node", current, "visit", visits)

		nodeCtx, span := telemetry.Tracer().Start(ctx, "graph.node",
			trace.WithAttributes(attribute.String("node", current)))
		var err error
		state, err = n.run(nodeCtx, state)
		telemetry.End(span, err)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", current, err)
		}
		if g.hook != nil {
			if err := g.hook(ctx, current, state); err != nil {
				return state, fmt.Errorf("hook after %s: %w", current, err)
			}
		}

		if n.cond != nil {
			key, err := n.cond(ctx, state)
			if err != nil {
				return state, fmt.Errorf("condition after %s: %w", current, err)
			}
			next, ok := n.routes[key]
			if !ok {
				return state, fmt.Errorf("condition after %s returned unroutable key %q", current, key)
			}
			current = next
		} else {
			current = n.next
		}
	}
	return state, nil
}
