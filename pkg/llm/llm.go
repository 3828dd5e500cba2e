package llm

import (
	"context"
	"strings"

	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

// Turn is one prior exchange passed to a provider as generation context.
type Turn struct {
	Role    string
	Content string
}

// Completion is the provider output for a single generation call.
type Completion struct {
	Content    string
	TokenCount int
}

// Generator produces an assistant reply for a prompt given prior history.
// The model name is an open set of provider-specific identifiers.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, history []Turn) (*Completion, error)
}

// Router dispatches generation calls to a provider based on the model name
// prefix. Unknown names fall through to the default provider.
type Router struct {
	providers    map[string]Generator
	defaultName  string
	defaultModel string
}

// NewRouter builds an empty router with a default provider key and model.
func NewRouter(defaultProvider, defaultModel string) *Router {
	return &Router{
		providers:    make(map[string]Generator),
		defaultName:  defaultProvider,
		defaultModel: defaultModel,
	}
}

// Register binds a model-name prefix to a provider.
func (r *Router) Register(prefix string, provider Generator) {
	r.providers[prefix] = provider
}

// DefaultModel returns the model used when the caller does not name one.
func (r *Router) DefaultModel() string {
	return r.defaultModel
}

// Generate resolves the provider for the model name and forwards the call.
func (r *Router) Generate(ctx context.Context, prompt, model string, history []Turn) (*Completion, error) {
	if model == "" {
		model = r.defaultModel
	}

	provider := r.resolve(model)
	if provider == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "no generation provider configured for model "+model)
	}

	return provider.Generate(ctx, prompt, model, history)
}

func (r *Router) resolve(model string) Generator {
	lowered := strings.ToLower(model)
	for prefix, provider := range r.providers {
		if strings.HasPrefix(lowered, prefix) {
			return provider
		}
	}
	return r.providers[r.defaultName]
}
