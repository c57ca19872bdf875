package payload

import "github.com/vasapolrittideah/couchnbs-api/shared/provider"

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

func (r ChatRequest) ProviderHistory() []provider.ChatMessage {
	out := make([]provider.ChatMessage, 0, len(r.History))
	for _, turn := range r.History {
		out = append(out, provider.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	return out
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// GenerateRequest is the JSON form of a generation; it carries no file.
type GenerateRequest struct {
	Type   string  `json:"type"`
	Prompt *string `json:"prompt"`
}

type GenerateResponse struct {
	Success   bool   `json:"success"`
	ResultURL string `json:"resultUrl"`
}

type PingResponse struct {
	Msg     string `json:"msg"`
	Version string `json:"version"`
	Time    int64  `json:"time"`
}
