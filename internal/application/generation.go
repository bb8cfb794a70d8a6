package application

import "context"

// Generator turns a transcript into a reply. The prompt is passed through unchanged.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
