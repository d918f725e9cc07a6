package models

// GenerationRequest is one call to the text generator.
type GenerationRequest struct {
	System      string
	User        string
	MaxTokens   int      // 0 uses the generator default
	Temperature *float64 // nil uses the provider default
}
