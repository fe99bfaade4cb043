// Package assist defines the boundary to external AI collaborators: the
// chat completion endpoint and the news document store. Both are optional;
// the engine runs fully without them.
package assist

import "context"

// Message is one turn of a chat completion conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Completer produces a chat completion from an external LLM endpoint.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// NewsItem is one document returned by a news search.
type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Topic     string `json:"topic"`
	Published string `json:"published"`
}

// NewsSearcher queries an external news document store.
type NewsSearcher interface {
	Search(ctx context.Context, query, symbol string, limit int, windowHours int) ([]NewsItem, error)
}

// NopSearcher is the default NewsSearcher: no news backend configured.
type NopSearcher struct{}

func (NopSearcher) Search(ctx context.Context, query, symbol string, limit, windowHours int) ([]NewsItem, error) {
	return nil, nil
}
