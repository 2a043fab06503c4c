package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// VertexGemini is the alternate completion gateway for deployments keyed to
// GCP credentials instead of an OpenAI-compatible endpoint.
type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return Response{}, errors.New("empty conversation")
	}

	// A fresh model value per call keeps per-request sampling config
	// race-free; the underlying client is shared.
	m := v.client.GenerativeModel(v.modelName)
	if req.Temperature != 0 {
		m.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	system, turns := splitSystem(req.Messages)
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	}
	if len(turns) == 0 {
		return Response{}, errors.New("conversation has no user turns")
	}

	cs := m.StartChat()
	for _, t := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &vertexgenai.Content{
			Role:  geminiRole(t.Role),
			Parts: []vertexgenai.Part{vertexgenai.Text(t.Content)},
		})
	}

	last := turns[len(turns)-1]
	it := cs.SendMessageStream(ctx, vertexgenai.Text(last.Content))

	var b strings.Builder
	finish := "stop"
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			var gerr *googleapi.Error
			if errors.As(err, &gerr) {
				return Response{}, &StatusError{StatusCode: gerr.Code, Err: err}
			}
			return Response{}, err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
			if cand.FinishReason == vertexgenai.FinishReasonMaxTokens {
				finish = "length"
			}
		}
	}

	return Response{Content: b.String(), FinishReason: finish}, nil
}

// splitSystem folds system entries into one instruction block; Gemini takes
// them out of band rather than as history turns.
func splitSystem(msgs []Message) (system string, rest []Message) {
	var sys []string
	for _, m := range msgs {
		if m.Role == "system" {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n\n"), rest
}

func geminiRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}
