package vision

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Rorical/RoriAge/internal/config"
)

// Factory builds a backend from a profile.
type Factory func(p config.Profile) (Backend, error)

// Registry manages available estimation providers
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Names lists registered providers in a stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the backend for the profile's provider.
func (r *Registry) New(p config.Profile) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[p.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p.Provider)
	}
	return factory(p)
}

// RegisterBuiltinBackends registers the providers shipped with RoriAge.
func RegisterBuiltinBackends(r *Registry) {
	r.Register(config.ProviderOpenAI, NewOpenAIBackend)
	r.Register(config.ProviderGemini, NewGeminiBackend)
	r.Register(config.ProviderWebSocket, NewWebSocketBackend)
}

// NewFrameSource picks the capture strategy configured for the profile.
func NewFrameSource(p config.Profile, framePath string) FrameSource {
	if len(p.CaptureCommand) > 0 {
		return CommandSource{Argv: p.CaptureCommand}
	}
	return FileSource{Path: framePath}
}
