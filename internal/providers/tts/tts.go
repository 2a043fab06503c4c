package tts

import "context"

type Provider interface {
	// Synthesize renders text to MPEG audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}
