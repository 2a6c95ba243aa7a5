package gemini

import "github.com/mhpenta/thumbgen"

var geminiAspectRatios = []thumbgen.AspectRatio{
	thumbgen.AspectRatio1x1,
	thumbgen.AspectRatio16x9,
	thumbgen.AspectRatio9x16,
	thumbgen.AspectRatio4x3,
	thumbgen.AspectRatio3x4,
}

// NanoBananaInfo is the model info for Gemini 2.5 Flash Image (nano-banana),
// the default thumbnail model.
var NanoBananaInfo = thumbgen.ModelInfo{
	Name:         "nano-banana",
	Provider:     thumbgen.ProviderGemini,
	APIModelName: APIModelNanoBanana,

	Capabilities: thumbgen.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsImageInput:  true,
		SupportsAspectRatio: true,
		MaxInputImages:      14, // Practical limit
	},

	SupportedAspectRatios: geminiAspectRatios,

	RateLimits: thumbgen.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},

	// Image output is billed as tokens, roughly $0.039 per 1024px image.
	Pricing: thumbgen.Pricing{
		InputTokensPerMillion:  0.30,
		OutputTokensPerMillion: 30.00,
		ImageGenerationCost:    0.039,
	},
}

// NanoBananaProInfo is the model info for Gemini 3 Pro Image.
var NanoBananaProInfo = thumbgen.ModelInfo{
	Name:         "nano-banana-pro",
	Provider:     thumbgen.ProviderGemini,
	APIModelName: APIModelNanoBananaPro,

	Capabilities: thumbgen.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsImageInput:  true,
		SupportsAspectRatio: true,
		MaxInputImages:      14,
	},

	SupportedAspectRatios: geminiAspectRatios,

	RateLimits: thumbgen.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 360,
	},

	// Prompts up to 200K tokens; a 1K/2K image costs about $0.134.
	Pricing: thumbgen.Pricing{
		InputTokensPerMillion:  2.00,
		OutputTokensPerMillion: 12.00,
		ImageGenerationCost:    0.134,
	},
}
