// Package model abstracts the text-completion backend used by the AI
// operator. The engine only ever needs one call shape: prompt in, text out.
package model

import "context"

// Provider produces a text completion for a prompt. Implementations are
// expected to honor context cancellation and apply their own per-call
// timeouts.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
