package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultChatModel is the model used when none is configured.
const DefaultChatModel = "gpt-4o-mini"

const systemPrompt = "You are a translation engine for live captions. " +
	"Translate the user's text from %s to %s. " +
	"Return only the translated text, with no quotes or commentary. " +
	"Keep the register and punctuation of the original."

// OpenAI is a Backend on the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIConfig configures the OpenAI backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for compatible endpoints
	Model   string
}

// NewOpenAI creates the backend. APIKey is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("translate: api key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Translate implements Backend.
func (o *OpenAI) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, languageName(sourceLang), languageName(targetLang))),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(1024),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// languageName expands an ISO code so the prompt reads naturally. Unknown
// codes pass through as-is.
func languageName(code string) string {
	names := map[string]string{
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"it": "Italian",
		"pt": "Portuguese",
		"ru": "Russian",
		"ja": "Japanese",
		"ko": "Korean",
		"zh": "Chinese",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
