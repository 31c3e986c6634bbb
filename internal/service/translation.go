package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/llm"
)

type Translation struct {
	Text           string `json:"text" jsonschema:"description=The translated text"`
	SourceLanguage string `json:"source_language" jsonschema:"description=ISO 639-1 code of the detected input language"`
}

type TranslationService interface {
	Translate(ctx context.Context, text, targetLanguage string) (*Translation, error)
}

type translationService struct {
	client llm.Client
	schema any
}

// NewTranslationService accepts a nil client; Translate then reports ErrTranslationDisabled.
func NewTranslationService(client llm.Client) TranslationService {
	return &translationService{
		client: client,
		schema: llm.GenerateSchema[Translation](),
	}
}

const translationPrompt = `You translate agricultural questions and answers for farmers and experts.
Preserve crop names, chemical names, dosages and units exactly. Do not add advice.
Return the translation and the ISO 639-1 code of the input language.`

func (s *translationService) Translate(ctx context.Context, text, targetLanguage string) (*Translation, error) {
	text = strings.TrimSpace(text)
	err := validation.Errors{
		"text":            validation.Validate(text, validation.Required, validation.Length(1, 5000)),
		"target_language": validation.Validate(targetLanguage, validation.Required, validation.Length(2, 32)),
	}.Filter()
	if err != nil {
		return nil, invalid(err)
	}
	if s.client == nil {
		return nil, ErrTranslationDisabled
	}

	var out Translation
	resp, err := s.client.Chat(ctx, llm.Request{
		SystemPrompt: translationPrompt,
		UserPrompt:   fmt.Sprintf("Target language: %s\n\n%s", targetLanguage, text),
		SchemaName:   "translation",
		Schema:       s.schema,
		MaxTokens:    2000,
		Temperature:  llm.Temp(0),
	}, &out)
	if err != nil {
		if llm.IsRetryable(ctx, err) {
			return nil, fmt.Errorf("translation %w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("translating: %w", err)
	}

	slog.InfoContext(ctx, "text translated",
		"target_language", targetLanguage,
		"source_language", out.SourceLanguage,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return &out, nil
}
