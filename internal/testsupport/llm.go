package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// ChatFunc answers one chat completion given its system and user messages. A
// non-zero status is returned as an HTTP error with content as the body.
type ChatFunc func(system, user string) (content string, status int)

// LLMServer is a stub OpenAI-compatible chat completions endpoint.
type LLMServer struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls reports how many completions were requested.
func (s *LLMServer) Calls() int { return int(s.calls.Load()) }

// NewLLMServer starts a chat completions stub that is closed with the test.
func NewLLMServer(t testing.TB, chat ChatFunc) *LLMServer {
	t.Helper()
	s := &LLMServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var system, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				system = m.Content
			case "user":
				user = m.Content
			}
		}
		content, status := chat(system, user)
		if status != 0 && status != http.StatusOK {
			http.Error(w, content, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}
