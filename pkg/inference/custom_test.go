package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"lorebook/pkg/schema"
)

func sseServer(t *testing.T, lines []string, check func(r *http.Request, body []byte)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if check != nil {
			check(r, body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprint(w, l)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func delta(s string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", s)
}

func TestCustomStream(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	srv := sseServer(t, []string{
		delta("<Suy_nghĩ>"),
		": keep-alive comment\n",
		"data: {not json}\n",
		delta("plan"),
		"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n",
		delta("</Suy_nghĩ>"),
		"data: [DONE]\n",
	}, func(r *http.Request, body []byte) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody = body
	})

	inf := NewCustomInferencer(srv.Client())
	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "m1"}

	var chunks []string
	full, err := inf.Stream(context.Background(), cfg, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	}, func(s string) { chunks = append(chunks, s) })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if full != "<Suy_nghĩ>plan</Suy_nghĩ>" {
		t.Errorf("full = %q", full)
	}
	if len(chunks) != 3 {
		t.Errorf("chunks = %q, want 3 nonempty deltas", chunks)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	body := gjson.ParseBytes(gotBody)
	if body.Get("model").String() != "m1" {
		t.Errorf("model = %q", body.Get("model").String())
	}
	if !body.Get("stream").Bool() {
		t.Error("stream flag not set")
	}
	if body.Get("temperature").Float() != 0.8 {
		t.Errorf("temperature = %v", body.Get("temperature").Float())
	}
	if body.Get("messages.0.role").String() != "system" || body.Get("messages.0.content").String() != "sys" {
		t.Errorf("system message = %s", body.Get("messages.0").Raw)
	}
	if body.Get("messages.1.role").String() != "user" || body.Get("messages.1.content").String() != "hello" {
		t.Errorf("user message = %s", body.Get("messages.1").Raw)
	}
}

func TestCustomStreamNoKeyNoAuthHeader(t *testing.T) {
	var hasAuth bool
	srv := sseServer(t, []string{delta("x"), "data: [DONE]\n"}, func(r *http.Request, _ []byte) {
		_, hasAuth = r.Header["Authorization"]
	})

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL}
	full, err := NewCustomInferencer(srv.Client()).Stream(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if full != "x" {
		t.Errorf("full = %q", full)
	}
	if hasAuth {
		t.Error("Authorization header sent without a key")
	}
}

func TestCustomStreamUnterminatedLastLine(t *testing.T) {
	srv := sseServer(t, []string{delta("a"), `data: {"choices":[{"delta":{"content":"b"}}]}`}, nil)

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL}
	full, err := NewCustomInferencer(srv.Client()).Stream(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if full != "ab" {
		t.Errorf("full = %q, want %q", full, "ab")
	}
}

func TestCustomStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL}
	_, err := NewCustomInferencer(srv.Client()).Stream(context.Background(), cfg, nil, nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d", httpErr.Status)
	}
	if !strings.Contains(httpErr.Body, "model not loaded") {
		t.Errorf("Body = %q", httpErr.Body)
	}
}

func TestCustomStreamMissingURL(t *testing.T) {
	_, err := NewCustomInferencer(nil).Stream(context.Background(), schema.ApiConfig{Provider: schema.ProviderCustom}, nil, nil)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want *ConnectionError", err)
	}
}

func TestCustomStreamNetworkErrorUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: url}
	_, err := NewCustomInferencer(nil).Stream(context.Background(), cfg, nil, nil)
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	var connErr *ConnectionError
	var httpErr *HTTPError
	if errors.As(err, &connErr) || errors.As(err, &httpErr) {
		t.Errorf("network failure was converted: %T", err)
	}
}

func TestCustomInferJSON(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m1","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"[\"Saber\",\"Rin\"]"}}]}`)
	}))
	defer srv.Close()

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL + "/v1", Model: "m1"}
	text, err := NewCustomInferencer(srv.Client()).InferJSON(context.Background(), cfg, "list")
	if err != nil {
		t.Fatalf("InferJSON: %v", err)
	}
	if text != `["Saber","Rin"]` {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestCustomInferJSONIgnoresEnvironmentKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_ORG_ID", "org-from-env")
	t.Setenv("OPENAI_PROJECT_ID", "proj-from-env")

	var gotAuth []string
	var gotOrg, gotProject string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		gotOrg = r.Header.Get("OpenAI-Organization")
		gotProject = r.Header.Get("OpenAI-Project")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m1","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"[]"}}]}`)
	}))
	defer srv.Close()

	inf := NewCustomInferencer(srv.Client())
	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL}
	if _, err := inf.InferJSON(context.Background(), cfg, "list"); err != nil {
		t.Fatalf("InferJSON: %v", err)
	}
	cfg.APIKey = "sk-user"
	if _, err := inf.InferJSON(context.Background(), cfg, "list"); err != nil {
		t.Fatalf("InferJSON with key: %v", err)
	}

	if len(gotAuth) != 2 || gotAuth[0] != "" || gotAuth[1] != "Bearer sk-user" {
		t.Errorf("Authorization headers = %q, want [\"\" \"Bearer sk-user\"]", gotAuth)
	}
	if gotOrg != "" || gotProject != "" {
		t.Errorf("environment headers leaked: org=%q project=%q", gotOrg, gotProject)
	}
}

func TestCustomInferJSONHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"auth"}}`)
	}))
	defer srv.Close()

	cfg := schema.ApiConfig{Provider: schema.ProviderCustom, BaseURL: srv.URL}
	_, err := NewCustomInferencer(srv.Client()).InferJSON(context.Background(), cfg, "list")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d", httpErr.Status)
	}
}
