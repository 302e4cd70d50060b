package transform

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

// MOCK GENERATOR

type mockGenerator struct {
	calls      int
	generateFn func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.calls++
	return m.generateFn(ctx, parts...)
}

func responseWith(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}},
		},
	}
}
