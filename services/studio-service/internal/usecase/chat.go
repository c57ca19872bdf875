package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vasapolrittideah/couchnbs-api/shared/provider"
)

const chatSystemPrompt = `You are an AI assistant for "Couch NBS", the first intelligent video editor in Tunisia.
Your goal is to help users understand our features: 4K Upscaling, Beauty Filters, Video Filters, and AI Image Generation.
You should be helpful, professional, and friendly. You can speak in Arabic (Tunisian dialect if possible) or French or English.
Current features:
- 4K Upscale: Converts videos to 4K quality.
- Beauty Filter: Enhances facial features and skin.
- Video Filter: Applies cinematic color filters.
- Image Generation: Generates images from text descriptions.
Cost: 35 TND per month via D17 payment.`

// ChatCompleter answers a conversation. *provider.GroqProvider implements it.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []provider.ChatMessage) (string, error)
}

type ChatUsecase interface {
	Chat(ctx context.Context, message string, history []provider.ChatMessage) (string, error)
}

type chatUsecase struct {
	completer ChatCompleter
}

func NewChatUsecase(completer ChatCompleter) ChatUsecase {
	return &chatUsecase{completer: completer}
}

func (u *chatUsecase) Chat(ctx context.Context, message string, history []provider.ChatMessage) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	messages := make([]provider.ChatMessage, 0, len(history)+2)
	messages = append(messages, provider.ChatMessage{Role: "system", Content: chatSystemPrompt})

	// Prior turns may only come from the user or the assistant.
	for _, m := range history {
		if (m.Role == "user" || m.Role == "assistant") && m.Content != "" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, provider.ChatMessage{Role: "user", Content: message})

	reply, err := u.completer.Complete(ctx, messages)
	if err != nil {
		if errors.Is(err, provider.ErrMissingAPIKey) {
			return "", fmt.Errorf("%w: %v", ErrMisconfigured, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return reply, nil
}
