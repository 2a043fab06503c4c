package stt

import "context"

type Provider interface {
	// Transcribe converts one recorded answer to text. Confidence is the
	// gateway's own estimate in [0,1], 0 when it reports none.
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
