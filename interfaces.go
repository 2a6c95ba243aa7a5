package thumbgen

import "context"

// Credential is a provider-scoped secret (API key).
type Credential string

// ImageGenerator is the provider adapter contract. Implement this interface
// to add support for a new generative-image service; the Manager treats all
// implementations identically.
//
// The first model returned by Models() is considered the default model.
type ImageGenerator interface {
	// GenerateOne issues exactly one request and returns at most one image:
	// the first media part of the response. Attachments must be sent in the
	// given order, which matches the roles enumerated in prompt.
	GenerateOne(ctx context.Context, credential Credential, prompt string, attachments []Attachment, genConfig *GenerateConfig) (EncodedImage, error)

	// Models returns the model definitions supported by this provider.
	// The first model in the list is the default.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// CredentialValidator is implemented by generators that can check a
// credential with a single inexpensive request.
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, credential Credential) error
}

// ImageAnalyzer is implemented by generators that can review an existing
// image and suggest how to make it a more clickable thumbnail.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, credential Credential, image EncodedImage, goal string) (string, error)
}

// TemplateSource resolves a style template reference to its image bytes.
type TemplateSource interface {
	FetchTemplate(ctx context.Context, ref string) (InputImage, error)
}
