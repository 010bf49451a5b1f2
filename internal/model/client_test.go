package model

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"
)

func TestCompleteAgainstServer(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"recommendations\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", Options{Model: "gpt-4o-mini", MaxTokens: 1000, Timeout: 5 * time.Second})

	out, err := client.Complete(context.Background(), Request{
		Purpose:     "generate",
		System:      "sys",
		User:        "usr",
		Temperature: 0.4,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"recommendations":[]}` {
		t.Errorf("unexpected content %q", out)
	}

	if got.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", got.Model)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("expected max_tokens 1000, got %d", got.MaxTokens)
	}
	if got.Temperature != 0.4 {
		t.Errorf("expected temperature 0.4, got %v", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "usr" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", Options{Model: "m", Timeout: 5 * time.Second})

	_, err := client.Complete(context.Background(), Request{Purpose: "generate"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsInferenceError(err) {
		t.Errorf("expected InferenceError, got %T", err)
	}
}

type stubCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (s stubCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return s.resp, s.err
}

func TestCompleteNoChoices(t *testing.T) {
	client := NewClientWithAPI(stubCompleter{}, Options{Model: "m"})

	_, err := client.Complete(context.Background(), Request{Purpose: "repair"})
	if !IsInferenceError(err) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestInferenceErrorUnwraps(t *testing.T) {
	client := NewClientWithAPI(stubCompleter{err: context.DeadlineExceeded}, Options{Model: "m"})

	_, err := client.Complete(context.Background(), Request{Purpose: "generate"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
	if IsInferenceError(errors.New("plain")) {
		t.Error("plain error should not be an InferenceError")
	}
}
