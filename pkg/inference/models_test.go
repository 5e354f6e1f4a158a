package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestListModels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "openai data objects", body: `{"data":[{"id":"m1"},{"id":"m2"}]}`, want: []string{"m1", "m2"}},
		{name: "models strings", body: `{"models":["llama","qwen"]}`, want: []string{"llama", "qwen"}},
		{name: "objects with name", body: `{"models":[{"name":"a"},{"id":"b","name":"ignored"}]}`, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.Path
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			got, err := ListModels(context.Background(), srv.Client(), srv.URL+"/v1/", "k")
			if err != nil {
				t.Fatalf("ListModels: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("models = %q, want %q", got, tt.want)
			}
			if gotAuth != "Bearer k" {
				t.Errorf("Authorization = %q", gotAuth)
			}
			if gotPath != "/v1/models" {
				t.Errorf("path = %q", gotPath)
			}
		})
	}
}

func TestListModelsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "empty list", status: http.StatusOK, body: `{"data":[]}`},
		{name: "unexpected shape", status: http.StatusOK, body: `{"object":"list"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := ListModels(context.Background(), srv.Client(), srv.URL, "")
			var connErr *ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("err = %v, want *ConnectionError", err)
			}
		})
	}
}

func TestListModelsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := ListModels(context.Background(), http.DefaultClient, url, "")
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want *ConnectionError", err)
	}

	_, err = ListModels(context.Background(), http.DefaultClient, "", "")
	if !errors.As(err, &connErr) {
		t.Fatalf("empty url: err = %v, want *ConnectionError", err)
	}
}

func TestPickModel(t *testing.T) {
	models := []string{"m1", "m2"}
	if got := PickModel(models, ""); got != "m1" {
		t.Errorf("PickModel(no previous) = %q, want m1", got)
	}
	if got := PickModel(models, "m2"); got != "m2" {
		t.Errorf("PickModel(m2) = %q, want m2", got)
	}
	if got := PickModel(models, "gone"); got != "m1" {
		t.Errorf("PickModel(gone) = %q, want m1", got)
	}
	if got := PickModel(nil, "m2"); got != "" {
		t.Errorf("PickModel(nil) = %q, want empty", got)
	}
}
