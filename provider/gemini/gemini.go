// Package gemini provides an ImageGenerator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/mhpenta/thumbgen"
)

// Model name constants - the actual API model names.
const (
	// APIModelNanoBanana is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana = "gemini-2.5-flash-image"

	// APIModelNanoBananaPro is the actual API name for Gemini 3 Pro Image
	APIModelNanoBananaPro = "gemini-3-pro-image-preview"

	// APIModelValidation is a cheap text model used to check credentials.
	APIModelValidation = "gemini-2.0-flash"
)

// maxReasonRunes caps how much model text is quoted in an error.
const maxReasonRunes = 200

// GeminiGenerator implements ImageGenerator using Google's Gemini API.
// One SDK client is kept per credential.
type GeminiGenerator struct {
	baseURL        string
	httpClient     *http.Client
	safetySettings []*genai.SafetySetting

	clients map[thumbgen.Credential]*genai.Client
	mu      sync.Mutex
}

// Ensure GeminiGenerator implements the interfaces.
var (
	_ thumbgen.ImageGenerator      = (*GeminiGenerator)(nil)
	_ thumbgen.CredentialValidator = (*GeminiGenerator)(nil)
)

// Option configures a GeminiGenerator.
type Option func(*GeminiGenerator)

// WithBaseURL points the SDK at a custom endpoint.
func WithBaseURL(url string) Option {
	return func(g *GeminiGenerator) {
		g.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GeminiGenerator) {
		g.httpClient = client
	}
}

// WithSafetySettings configures default safety settings for all requests.
// These can be overridden per-request via GenerateConfig.SafetySettings.
func WithSafetySettings(settings []thumbgen.SafetySetting) Option {
	return func(g *GeminiGenerator) {
		g.safetySettings = convertSafetySettings(settings)
	}
}

// New creates a GeminiGenerator. Credentials are supplied per call.
func New(opts ...Option) *GeminiGenerator {
	g := &GeminiGenerator{
		clients: make(map[thumbgen.Credential]*genai.Client),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateOne sends the attachments in order followed by the prompt text and
// returns the first image in the response.
func (g *GeminiGenerator) GenerateOne(ctx context.Context, credential thumbgen.Credential, prompt string, attachments []thumbgen.Attachment, config *thumbgen.GenerateConfig) (thumbgen.EncodedImage, error) {
	if config == nil {
		config = thumbgen.DefaultConfig()
	}
	modelName := g.resolveModel(config)

	client, err := g.client(ctx, credential)
	if err != nil {
		return thumbgen.EncodedImage{}, err
	}

	parts := make([]*genai.Part, 0, len(attachments)+1)
	for i, att := range attachments {
		data, err := thumbgen.DecodeBytes(att.EncodedImage)
		if err != nil {
			return thumbgen.EncodedImage{}, fmt.Errorf("attachment %d (%s): %w", i+1, att.Role, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     data,
				MIMEType: att.MIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: prompt})

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, modelName, contents, g.buildGenerateContentConfig(config))
	if err != nil {
		return thumbgen.EncodedImage{}, classifyError(err, modelName)
	}

	return firstImage(result, modelName)
}

// ValidateCredential sends one short text request with credential.
func (g *GeminiGenerator) ValidateCredential(ctx context.Context, credential thumbgen.Credential) error {
	client, err := g.client(ctx, credential)
	if err != nil {
		return err
	}

	_, err = client.Models.GenerateContent(ctx, APIModelValidation, genai.Text("Hello"), nil)
	if err != nil {
		return fmt.Errorf("%w: gemini: %w", thumbgen.ErrInvalidCredential, classifyError(err, APIModelValidation))
	}
	return nil
}

// Models returns the model definitions supported by this provider.
// The first model (nano-banana) is the default.
func (g *GeminiGenerator) Models() []thumbgen.ModelInfo {
	return []thumbgen.ModelInfo{
		NanoBananaInfo,
		NanoBananaProInfo,
	}
}

// Close drops the cached clients.
func (g *GeminiGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// The genai.Client doesn't require explicit closing in the current SDK
	g.clients = make(map[thumbgen.Credential]*genai.Client)
	return nil
}

func (g *GeminiGenerator) client(ctx context.Context, credential thumbgen.Credential) (*genai.Client, error) {
	if err := thumbgen.ValidateCredential(credential, thumbgen.ProviderGemini); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[credential]; ok {
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     string(credential),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}

	c, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.clients[credential] = c
	return c, nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (g *GeminiGenerator) resolveModel(config *thumbgen.GenerateConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	return g.Models()[0].APIModelName
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func (g *GeminiGenerator) buildGenerateContentConfig(config *thumbgen.GenerateConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		// Enable image output
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	imageConfig := &genai.ImageConfig{
		AspectRatio: thumbgen.AspectRatio16x9.String(),
	}
	if config.AspectRatio != "" {
		imageConfig.AspectRatio = config.AspectRatio.String()
	}
	if config.Size != "" {
		imageConfig.ImageSize = config.Size.String()
	}
	genConfig.ImageConfig = imageConfig

	if config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(*config.Temperature)
	}

	// Safety settings: per-request overrides provider defaults
	if len(config.SafetySettings) > 0 {
		genConfig.SafetySettings = convertSafetySettings(config.SafetySettings)
	} else if len(g.safetySettings) > 0 {
		genConfig.SafetySettings = g.safetySettings
	}

	return genConfig
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []thumbgen.SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// firstImage returns the first inline image of the response. Any further
// images and text parts are ignored.
func firstImage(result *genai.GenerateContentResponse, model string) (thumbgen.EncodedImage, error) {
	if result == nil || len(result.Candidates) == 0 {
		return thumbgen.EncodedImage{}, &thumbgen.ProviderResponseError{
			Provider: thumbgen.ProviderGemini,
			Model:    model,
			Reason:   "empty response from model",
		}
	}

	var text string
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return thumbgen.EncodedImage{
					Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
					MIMEType: mimeType,
				}, nil
			}
			if part.Text != "" && text == "" {
				text = part.Text
			}
		}
	}

	reason := "no image in response"
	if text != "" {
		reason += ": " + truncate(text, maxReasonRunes)
	}
	return thumbgen.EncodedImage{}, &thumbgen.ProviderResponseError{
		Provider: thumbgen.ProviderGemini,
		Model:    model,
		Reason:   reason,
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// classifyError wraps quota errors in a RateLimitError for standardized
// handling; anything else is returned with context.
func classifyError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini request failed: %w", err)
	}

	if apiErr.Code != http.StatusTooManyRequests && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("gemini request failed: %w", err)
	}

	return &thumbgen.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Model:      model,
		Err:        err,
	}
}
