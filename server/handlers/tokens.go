package handlers

import (
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/pkoukk/tiktoken-go"
)

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// promptEncoder returns the shared cl100k_base encoder, or nil when the
// encoding data is unavailable. Estimation is best-effort: a nil encoder
// disables it rather than failing the request.
func promptEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			return
		}
		encoder = enc
	})
	return encoder
}

// estimatePromptTokens counts the tokens of the system prompt plus all
// message contents. Returns 0 when estimation is unavailable.
func (h *ChatHandler) estimatePromptTokens(systemPrompt string, messages []openai.ChatCompletionMessage) int {
	enc := promptEncoder()
	if enc == nil {
		return 0
	}
	total := len(enc.Encode(systemPrompt, nil, nil))
	for _, m := range messages {
		total += len(enc.Encode(m.Content, nil, nil))
	}
	return total
}
