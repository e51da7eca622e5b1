package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Key") != "k" {
			t.Errorf("unexpected headers %v", r.Header)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		w.Write([]byte(`{"echo": "` + in["text"] + `"}`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Key", "k")
	var out struct {
		Echo string `json:"echo"`
	}
	if err := Post(context.Background(), srv.Client(), srv.URL, header, map[string]string{"text": "hi"}, &out); err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("echo = %q", out.Echo)
	}
}

func TestPostStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model \"x\" not found"}`))
	}))
	defer srv.Close()

	err := Post(context.Background(), srv.Client(), srv.URL, nil, struct{}{}, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Status != http.StatusNotFound || se.Message != `model "x" not found` {
		t.Errorf("unexpected error %+v", se)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error": {"message": "bad key"}}`, "bad key"},
		{`{"error": "model not found"}`, "model not found"},
		{`upstream timeout`, "upstream timeout"},
		{strings.Repeat("x", 3000), strings.Repeat("x", maxErrorBody)},
	}
	for _, tt := range tests {
		if got := ErrorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("ErrorMessage(%.20s) = %.20q, want %.20q", tt.body, got, tt.want)
		}
	}
}
