package inference

import (
	"context"
	"fmt"
	"net/http"

	"lorebook/pkg/prompt"
	"lorebook/pkg/schema"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Messages turns an assembled prompt into the system/user pair.
func Messages(p prompt.Prompt) []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}

// Inferencer is one model backend.
type Inferencer interface {
	// Stream sends messages and calls onChunk for every text fragment as it
	// arrives. It returns the concatenation of all fragments.
	Stream(ctx context.Context, cfg schema.ApiConfig, messages []Message, onChunk func(string)) (string, error)
	// InferJSON sends a single user prompt without streaming and asks for a
	// JSON answer where the backend supports it.
	InferJSON(ctx context.Context, cfg schema.ApiConfig, user string) (string, error)
}

// Gateway routes calls to the backend named by the config's provider.
type Gateway struct {
	Gemini Inferencer
	Custom Inferencer

	// HTTPClient is used for connection tests. nil means http.DefaultClient.
	HTTPClient *http.Client
}

func (g *Gateway) backend(cfg schema.ApiConfig) (Inferencer, error) {
	switch cfg.Provider {
	case schema.ProviderCustom:
		if cfg.BaseURL == "" {
			return nil, &ConnectionError{Reason: "API URL is required for custom provider"}
		}
		if g.Custom == nil {
			return nil, &ConnectionError{Reason: "custom provider is not configured"}
		}
		return g.Custom, nil
	case schema.ProviderGemini, "":
		if g.Gemini == nil {
			return nil, &ConnectionError{Reason: "gemini provider is not configured, set GEMINI_API_KEY"}
		}
		return g.Gemini, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func (g *Gateway) Stream(ctx context.Context, cfg schema.ApiConfig, messages []Message, onChunk func(string)) (string, error) {
	b, err := g.backend(cfg)
	if err != nil {
		return "", err
	}
	return b.Stream(ctx, cfg, messages, onChunk)
}

// ListCharacters asks for quantity new character names from world. Names in
// exclusions are requested to be left out and are filtered from the answer
// by exact comparison. An unreadable answer yields an empty list, not an error.
func (g *Gateway) ListCharacters(ctx context.Context, world string, quantity int, cfg schema.ApiConfig, exclusions []string) ([]string, error) {
	b, err := g.backend(cfg)
	if err != nil {
		return nil, err
	}
	text, err := b.InferJSON(ctx, cfg, prompt.CharacterList(world, quantity, exclusions))
	if err != nil {
		return nil, err
	}
	return characterNames(text, exclusions, quantity), nil
}

func (g *Gateway) ConnectionTest(ctx context.Context, baseURL, apiKey string) ([]string, error) {
	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return ListModels(ctx, client, baseURL, apiKey)
}
