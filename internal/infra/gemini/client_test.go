package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"visionary/internal/domain"
	"visionary/internal/infra/gemini"
)

func TestClient_Describe(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			http.Error(w, "not found "+r.URL.Path, http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)

		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "A bicycle leaning on a wall.\n"}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", server.URL, nil)

	text, err := client.Describe(context.Background(), []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("Describe error: %v", err)
	}
	if text != "A bicycle leaning on a wall." {
		t.Errorf("text = %q", text)
	}

	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	if inline["mime_type"] != "image/jpeg" || inline["data"] != "/9g=" {
		t.Errorf("unexpected inline data %v", inline)
	}
}

func TestClient_DescribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := gemini.NewClientWithURL("test-key", "", server.URL, nil).Describe(context.Background(), []byte{1})

	var de *domain.DescribeError
	if !errors.As(err, &de) || de.Kind != domain.KindAPI || de.Message != "rate limited" {
		t.Errorf("err = %v, want api error with message", err)
	}
}

func TestClient_DescribeNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := gemini.NewClientWithURL("test-key", "", server.URL, nil).Describe(context.Background(), []byte{1})
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestClient_WithGeneration(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A door."}]}}]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", server.URL, nil).WithGeneration(40, 0)
	if _, err := client.Describe(context.Background(), []byte{0xff, 0xd8}); err != nil {
		t.Fatal(err)
	}

	gen := got["generationConfig"].(map[string]any)
	if gen["maxOutputTokens"] != float64(40) || gen["temperature"] != float64(0) {
		t.Errorf("generationConfig = %v", gen)
	}
}
