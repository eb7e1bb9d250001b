// Package dispatch runs the two-layer routing state machine: one
// classification step selects exactly one category handler, every handler
// transitions to the terminal state. Single turn, acyclic, depth 2.
package dispatch

import (
	"context"
	"fmt"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/metrics"
)

// Classifier resolves a query to a category. Implementations must always
// return a member of domain.Categories().
type Classifier interface {
	Classify(ctx context.Context, query string) domain.Category
}

// Handler produces the final response text for one category. Handlers own
// their failure modes: a provider error must come back as user-facing text,
// not as an error. A returned error is an invocation fault and aborts the
// whole dispatch.
type Handler interface {
	Handle(ctx context.Context, query string) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, query string) (string, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// graph states. Category states are named by the category itself.
type state string

const (
	stateEntry       state = "entry"
	stateClassifying state = "classifying"
	stateTerminal    state = "terminal"
)

// invocation is the immutable per-invocation context passed between the
// classification step and the selected handler. Each Dispatch call builds
// its own; nothing is shared across invocations.
type invocation struct {
	query    string
	category domain.Category
	response string
}

// Graph is the dispatch state machine. The transition table is keyed by
// domain.Category, so it can never drift from the classifier's closed set.
type Graph struct {
	classifier Classifier
	handlers   map[domain.Category]Handler
}

// NewGraph creates a dispatch graph. The handler table must cover every
// category exactly: the classifier guarantees a valid member, so no
// default branch exists at this layer.
func NewGraph(classifier Classifier, handlers map[domain.Category]Handler) (*Graph, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	for _, c := range domain.Categories() {
		if handlers[c] == nil {
			return nil, fmt.Errorf("missing handler for category %q", c)
		}
	}
	if len(handlers) != len(domain.Categories()) {
		return nil, fmt.Errorf("handler table has %d entries, want %d", len(handlers), len(domain.Categories()))
	}

	return &Graph{classifier: classifier, handlers: handlers}, nil
}

// Dispatch runs one invocation: entry → classifying → <category> →
// terminal. The returned result is constructed once at the terminal state.
// The only error surfaced is an uncaught handler fault.
func (g *Graph) Dispatch(ctx context.Context, query string) (domain.DispatchResult, error) {
	inv := invocation{query: query}

	for st := stateEntry; st != stateTerminal; {
		switch st {
		case stateEntry:
			st = stateClassifying

		case stateClassifying:
			inv.category = g.classifier.Classify(ctx, inv.query)
			st = state(inv.category)

		default:
			// A category state. Its outgoing edge is unconditional:
			// every handler leads to terminal, no handler re-enters
			// classification.
			response, err := g.handlers[domain.Category(st)].Handle(ctx, inv.query)
			if err != nil {
				return domain.DispatchResult{}, fmt.Errorf("%s handler: %w", st, err)
			}
			inv.response = response
			st = stateTerminal
		}
	}

	metrics.DispatchTotal.WithLabelValues(string(inv.category)).Inc()

	return domain.DispatchResult{
		Response: inv.response,
		Category: inv.category,
	}, nil
}
