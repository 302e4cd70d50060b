// Package transform wraps the single call to the external image-generation model
package transform

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/PhotoAnimator/internal/codec"
	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash-image"

var errNoImageData = errors.New("no image data in response")

type Config struct {
	APIKey string
	Model  string
}

// contentGenerator - то, что нам нужно от *genai.GenerativeModel
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiClient struct {
	client *genai.Client
	model  contentGenerator
	name   string
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, model.ErrMissingCredential
	}

	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		name = DefaultModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{client: cl, model: cl.GenerativeModel(name), name: name}, nil
}

func (g *GeminiClient) Model() string { return g.name }

func (g *GeminiClient) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Submit makes exactly one GenerateContent call. Whatever goes wrong, the caller only sees ErrTransformFailed.
func (g *GeminiClient) Submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := g.submit(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("model", g.name).Msg("Error calling Gemini API")
		return model.TransformResult{}, model.ErrTransformFailed
	}
	return res, nil
}

func (g *GeminiClient) submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
	imgBytes, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		return model.TransformResult{}, fmt.Errorf("bad base64 payload: %w", err)
	}

	parts := []genai.Part{
		genai.Blob{MIMEType: req.MimeType, Data: imgBytes},
		genai.Text(req.Instruction),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return model.TransformResult{}, err
	}

	return firstImage(resp)
}

// firstImage берет первый part с inline-байтами из первого кандидата
func firstImage(resp *genai.GenerateContentResponse) (model.TransformResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.TransformResult{}, errNoImageData
	}

	for _, p := range resp.Candidates[0].Content.Parts {
		var blob genai.Blob
		switch v := p.(type) {
		case genai.Blob:
			blob = v
		case *genai.Blob:
			if v == nil {
				continue
			}
			blob = *v
		default:
			continue
		}
		if len(blob.Data) == 0 {
			continue
		}

		mime := blob.MIMEType
		if !strings.HasPrefix(mime, "image/") {
			mime = model.Generic
		}
		return model.TransformResult{
			DataURI:  codec.DataURI(mime, base64.StdEncoding.EncodeToString(blob.Data)),
			MimeType: mime,
		}, nil
	}

	return model.TransformResult{}, errNoImageData
}
