// In file: internal/llm/constants.go
package llm

import "time"

// This file centralizes constants shared across the adapters in the llm package.
const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	defaultMaxOutputTokens = 4096

	// Uploaded files are processed asynchronously by the provider.
	uploadPollInterval = 2 * time.Second
	uploadPollAttempts = 30

	defaultAttachmentMIME = "application/pdf"

	// DefaultAttachmentTTL stays below the provider's 48h file retention.
	DefaultAttachmentTTL = 47 * time.Hour
)
