package analysis

import "context"

// Provider is a generative language model backend.
type Provider interface {
	// Name returns the provider's registered name.
	Name() string
	// IsAvailable checks whether the provider can serve requests.
	IsAvailable(ctx context.Context) bool
	// Complete sends a system instruction and user content, returning the
	// model's text reply.
	Complete(ctx context.Context, system, user string) (string, error)
}
