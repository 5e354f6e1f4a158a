package inference

import (
	"context"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ListModels fetches {baseURL}/models and returns the advertised model ids.
// Both {"data": [...]} and {"models": [...]} bodies are understood, with
// items given as strings or as objects carrying id or name.
func ListModels(ctx context.Context, client *http.Client, baseURL, apiKey string) ([]string, error) {
	if baseURL == "" {
		return nil, &ConnectionError{Reason: "please enter an API URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(baseURL, "models"), nil)
	if err != nil {
		return nil, &ConnectionError{Reason: "invalid API URL", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnectionError{Reason: "failed to connect to API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ConnectionError{Reason: "failed to connect to API: " + resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Reason: "failed to read model list", Err: err}
	}

	ids := modelIDs(body)
	if len(ids) == 0 {
		return nil, &ConnectionError{Reason: "no models found"}
	}
	return ids, nil
}

func modelIDs(body []byte) []string {
	if !gjson.ValidBytes(body) {
		return nil
	}
	doc := gjson.ParseBytes(body)
	list := doc.Get("data")
	if !list.IsArray() {
		list = doc.Get("models")
	}

	var ids []string
	for _, m := range list.Array() {
		var id string
		switch {
		case m.Type == gjson.String:
			id = m.String()
		case m.IsObject():
			id = m.Get("id").String()
			if id == "" {
				id = m.Get("name").String()
			}
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// PickModel keeps previous when it is still offered, else the first model.
func PickModel(models []string, previous string) string {
	for _, m := range models {
		if m == previous && previous != "" {
			return previous
		}
	}
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
