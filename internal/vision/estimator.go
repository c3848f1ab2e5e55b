package vision

import (
	"context"
	"io"
)

// Estimate is the result of one successful face analysis.
type Estimate struct {
	Age float64
}

// Estimator analyses one frame. A nil estimate with a nil error means no
// face was found.
type Estimator interface {
	Detect(ctx context.Context, frame Frame) (*Estimate, error)
}

// ModelLoader prepares everything an Estimator needs. It is called once.
type ModelLoader interface {
	Load(ctx context.Context) error
}

// Backend is a provider implementation registered under a name.
type Backend interface {
	ModelLoader
	Estimator
	io.Closer
	Name() string
}

// FailedBackend stands in for a provider that could not be constructed so the
// failure surfaces through the normal loader path.
type FailedBackend struct {
	Provider string
	Err      error
}

func (b FailedBackend) Name() string { return b.Provider }

func (b FailedBackend) Load(context.Context) error { return b.Err }

func (b FailedBackend) Detect(context.Context, Frame) (*Estimate, error) { return nil, b.Err }

func (b FailedBackend) Close() error { return nil }
