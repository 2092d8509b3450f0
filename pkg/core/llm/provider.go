// Package llm holds the generative model providers used for brief
// augmentation. Provider selection is environment-driven so the same
// pipeline runs against Gemini, DeepSeek, or Qwen without code changes.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider is the interface every generative backend implements.
type Provider interface {
	// GenerateResponse sends one prompt and returns the model's text.
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// Configured reports whether the provider has the credentials it needs.
	Configured() bool
	// Name identifies the provider in logs and run metadata.
	Name() string
}

// NewFromEnv selects a provider from the AI_PROVIDER environment variable.
// Unset or unknown values fall back to the Gemini GenAI SDK provider.
func NewFromEnv() Provider {
	switch strings.ToLower(os.Getenv("AI_PROVIDER")) {
	case "gemini-legacy":
		return &LegacyGeminiProvider{}
	case "deepseek":
		return &DeepSeekProvider{}
	case "qwen":
		return &QwenProvider{}
	case "", "gemini":
		return &GeminiProvider{}
	default:
		fmt.Printf("[LLM] unknown AI_PROVIDER %q, falling back to gemini\n", os.Getenv("AI_PROVIDER"))
		return &GeminiProvider{}
	}
}

// optString reads a string option with a default.
func optString(options map[string]interface{}, key, def string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return def
}

// optFloat reads a float option with a default.
func optFloat(options map[string]interface{}, key string, def float64) float64 {
	if val, ok := options[key].(float64); ok {
		return val
	}
	return def
}
