package llm

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    openai "github.com/sashabaranov/go-openai"
)

func TestNewOpenAI_UsesBaseURL(t *testing.T) {
    var path, auth string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        path = r.URL.Path
        auth = r.Header.Get("Authorization")
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(map[string]any{
            "id":      "x",
            "object":  "chat.completion",
            "choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "hi"}}},
        })
    }))
    defer srv.Close()

    p := NewOpenAI(srv.URL+"/v1/", "secret", srv.Client())
    resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
        Model:    "m",
        Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hello"}},
    })
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if path != "/v1/chat/completions" {
        t.Fatalf("unexpected path %q", path)
    }
    if auth != "Bearer secret" {
        t.Fatalf("unexpected auth header %q", auth)
    }
    if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hi" {
        t.Fatalf("unexpected response: %+v", resp)
    }
}
