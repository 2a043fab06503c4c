package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech transcribes candidate answers. Defaults assume audio recorded
// in a browser (WebM/Opus at 48kHz); override the fields before first use
// for other capture pipelines.
type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
	Language     string
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_WEBM_OPUS,
		SampleRateHz: 48000,
		Language:     "en-US",
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	if language == "" {
		language = g.Language
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}

	// Results arrive in utterance order; an answer spans several, so join
	// them rather than keeping only the most confident alternative.
	var text string
	var confSum float64
	var confN int
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		best := r.Alternatives[0]
		if best.Transcript == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += best.Transcript
		confSum += float64(best.Confidence)
		confN++
	}

	var confidence float64
	if confN > 0 {
		confidence = confSum / float64(confN)
	}
	return text, confidence, nil
}
