package openai

import "github.com/mhpenta/thumbgen"

// DallE3Info is the model info for DALL-E 3, the default text-to-image model.
var DallE3Info = thumbgen.ModelInfo{
	Name:         "dall-e-3",
	Provider:     thumbgen.ProviderOpenAI,
	APIModelName: APIModelDallE3,

	Capabilities: thumbgen.ModelCapabilities{
		SupportsTextToImage:  true,
		SupportsImageInput:   true, // requests with attachments are sent to gpt-image-1 edits
		MaxInputImages:       maxEditImages,
		SupportsStyleOptions: true,
	},

	SupportedAspectRatios: []thumbgen.AspectRatio{
		thumbgen.AspectRatio1x1,
		thumbgen.AspectRatio16x9,
		thumbgen.AspectRatio9x16,
	},

	RateLimits: thumbgen.RateLimits{
		RequestsPerMinute: 500,
	},

	// HD 1792x1024
	Pricing: thumbgen.Pricing{
		ImageGenerationCost: 0.12,
	},
}

// GPTImage1Info is the model info for gpt-image-1, used for image edits.
var GPTImage1Info = thumbgen.ModelInfo{
	Name:         "gpt-image-1",
	Provider:     thumbgen.ProviderOpenAI,
	APIModelName: APIModelGPTImage1,

	Capabilities: thumbgen.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsImageInput:  true,
		MaxInputImages:      maxEditImages,
	},

	SupportedAspectRatios: []thumbgen.AspectRatio{
		thumbgen.AspectRatio1x1,
		thumbgen.AspectRatio3x4,
		thumbgen.AspectRatio4x3,
	},

	RateLimits: thumbgen.RateLimits{
		TokensPerMinute:   100000,
		RequestsPerMinute: 50,
	},

	Pricing: thumbgen.Pricing{
		InputTokensPerMillion:  10.00,
		OutputTokensPerMillion: 40.00,
		ImageGenerationCost:    0.25, // high quality 1536x1024
	},
}
