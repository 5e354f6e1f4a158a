package inference

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"lorebook/pkg/schema"
)

const (
	defaultCustomModel = "gpt-3.5-turbo"
	customTemperature  = 0.8
	streamDone         = "[DONE]"
)

// CustomInferencer talks to a self-hosted OpenAI-compatible endpoint. The
// endpoint, key and model come from the per-call config.
type CustomInferencer struct {
	client *http.Client
}

// NewCustomInferencer creates an inferencer sending requests with client,
// or http.DefaultClient when nil.
func NewCustomInferencer(client *http.Client) *CustomInferencer {
	if client == nil {
		client = http.DefaultClient
	}
	return &CustomInferencer{client: client}
}

func endpoint(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path
}

func chatParams(cfg schema.ApiConfig, messages []Message) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:       cmp.Or(cfg.Model, defaultCustomModel),
		Messages:    msgs,
		Temperature: openai.Float(customTemperature),
	}
}

// Stream posts a streaming chat completion and reads server-sent deltas.
// Lines that do not decode are logged and skipped.
func (o *CustomInferencer) Stream(ctx context.Context, cfg schema.ApiConfig, messages []Message, onChunk func(string)) (string, error) {
	if cfg.BaseURL == "" {
		return "", &ConnectionError{Reason: "API URL is required for custom provider"}
	}

	body, err := json.Marshal(chatParams(cfg, messages))
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	body, err = sjson.SetBytes(body, "stream", true)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(cfg.BaseURL, "chat/completions"), bytes.NewReader(body))
	if err != nil {
		return "", &ConnectionError{Reason: "invalid API URL", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(resp.Body)
		return "", &HTTPError{Status: resp.StatusCode, Body: string(errBody)}
	}

	return readDeltas(resp.Body, onChunk)
}

func readDeltas(r io.Reader, onChunk func(string)) (string, error) {
	var full strings.Builder
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if text := deltaContent(line); text != "" {
				if onChunk != nil {
					onChunk(text)
				}
				full.WriteString(text)
			}
		}
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return full.String(), err
		}
	}
}

func deltaContent(line string) string {
	line = strings.TrimRight(line, "\r\n")
	payload, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return ""
	}
	payload = strings.TrimSpace(payload)
	if payload == streamDone {
		return ""
	}
	if !gjson.Valid(payload) {
		log.Warn("failed to parse stream chunk", "line", line)
		return ""
	}
	return gjson.Get(payload, "choices.0.delta.content").String()
}

// InferJSON runs a non-streaming completion through the OpenAI client.
func (o *CustomInferencer) InferJSON(ctx context.Context, cfg schema.ApiConfig, user string) (string, error) {
	if cfg.BaseURL == "" {
		return "", &ConnectionError{Reason: "API URL is required for custom provider"}
	}

	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/"),
		option.WithHTTPClient(o.client),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// NewClient picks up OPENAI_API_KEY from the environment, which must
		// never reach a user-supplied endpoint.
		opts = append(opts, option.WithHeaderDel("Authorization"))
	}
	opts = append(opts,
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
	)
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, chatParams(cfg, []Message{{Role: RoleUser, Content: user}}))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPError{Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
