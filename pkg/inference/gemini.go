package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"lorebook/pkg/schema"
)

// GeminiModel is the managed model used for every call.
const GeminiModel = "gemini-2.5-flash"

type GeminiInferencer struct {
	client *genai.Client
	model  string
}

// NewGeminiInferencer creates an inferencer for the Gemini API.
func NewGeminiInferencer(ctx context.Context, apiKey string) (*GeminiInferencer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		model:  GeminiModel,
	}, nil
}

// split returns the joined system instructions and the remaining turns.
func split(messages []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	return strings.Join(system, "\n\n"), contents
}

// Stream opens a server-side streaming generation and forwards each fragment.
func (o *GeminiInferencer) Stream(ctx context.Context, _ schema.ApiConfig, messages []Message, onChunk func(string)) (string, error) {
	system, contents := split(messages)
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	var full strings.Builder
	for resp, err := range o.client.Models.GenerateContentStream(ctx, o.model, contents, config) {
		if err != nil {
			return full.String(), geminiError(err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if onChunk != nil {
			onChunk(text)
		}
		full.WriteString(text)
	}
	return full.String(), nil
}

// InferJSON asks for a JSON array of strings.
func (o *GeminiInferencer) InferJSON(ctx context.Context, _ schema.ApiConfig, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	result, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(user), config)
	if err != nil {
		return "", geminiError(err)
	}
	return result.Text(), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &HTTPError{Status: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
