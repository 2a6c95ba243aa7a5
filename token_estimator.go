package thumbgen

import (
	"math"
)

// TokenEstimator approximates the input cost of one generation request.
type TokenEstimator interface {
	EstimateTokens(prompt string, imageCount int) int
}

// SimpleTokenEstimator - fast approximation of prompt size for rate limiting
type SimpleTokenEstimator struct {
	SafetyMargin   float64
	TokensPerImage int
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin:   1.2,
		TokensPerImage: 258, // Gemini bills a small inline image at 258 tokens
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(prompt string, imageCount int) int {
	total := imageCount * e.TokensPerImage
	if prompt == "" {
		return total
	}

	charCount := len([]rune(prompt))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.SafetyMargin

	return total + int(math.Ceil(tokenEstimate)) + 3
}
