// Package openai provides an ImageGenerator implementation using the OpenAI
// Images API via github.com/openai/openai-go.
//
// Requests without attachments go to the generations endpoint (DALL-E 3 by
// default). Requests with attachments go to the edits endpoint with
// gpt-image-1, which accepts several input images.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mhpenta/thumbgen"
)

const (
	APIModelDallE3    = "dall-e-3"
	APIModelGPTImage1 = "gpt-image-1"

	// APIModelVision reviews uploaded images.
	APIModelVision = "gpt-4o"

	analysisMaxTokens = 500

	// maxEditImages is the most input images the edits endpoint accepts.
	maxEditImages = 16

	landscapeDallE    = "1792x1024"
	landscapeGPTImage = "1536x1024"
)

// OpenAIGenerator implements ImageGenerator using the OpenAI Images API.
// One SDK client is kept per credential.
type OpenAIGenerator struct {
	baseURL    string
	httpClient *http.Client

	clients map[thumbgen.Credential]*openai.Client
	mu      sync.Mutex
}

// Ensure OpenAIGenerator implements the interfaces.
var (
	_ thumbgen.ImageGenerator      = (*OpenAIGenerator)(nil)
	_ thumbgen.CredentialValidator = (*OpenAIGenerator)(nil)
	_ thumbgen.ImageAnalyzer       = (*OpenAIGenerator)(nil)
)

// Option configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithBaseURL points the SDK at a custom endpoint.
func WithBaseURL(url string) Option {
	return func(g *OpenAIGenerator) {
		g.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(g *OpenAIGenerator) {
		g.httpClient = client
	}
}

// New creates an OpenAIGenerator. Credentials are supplied per call.
func New(opts ...Option) *OpenAIGenerator {
	g := &OpenAIGenerator{
		clients: make(map[thumbgen.Credential]*openai.Client),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateOne issues a single generation or edit request and returns the
// first image of the response.
func (g *OpenAIGenerator) GenerateOne(ctx context.Context, credential thumbgen.Credential, prompt string, attachments []thumbgen.Attachment, config *thumbgen.GenerateConfig) (thumbgen.EncodedImage, error) {
	if config == nil {
		config = thumbgen.DefaultConfig()
	}

	client, err := g.client(credential)
	if err != nil {
		return thumbgen.EncodedImage{}, err
	}

	if len(attachments) > 0 {
		return g.edit(ctx, client, prompt, attachments)
	}
	return g.generate(ctx, client, prompt, config)
}

func (g *OpenAIGenerator) generate(ctx context.Context, client *openai.Client, prompt string, config *thumbgen.GenerateConfig) (thumbgen.EncodedImage, error) {
	model := string(config.Model)
	if model == "" {
		model = APIModelDallE3
	}

	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(model),
		N:      openai.Int(1),
	}
	if model == APIModelDallE3 {
		params.Size = openai.ImageGenerateParamsSize(landscapeDallE)
		params.Quality = openai.ImageGenerateParamsQuality("hd")
		params.Style = openai.ImageGenerateParamsStyle("vivid")
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	} else {
		// gpt-image models always answer with base64 and reject response_format.
		params.Size = openai.ImageGenerateParamsSize(landscapeGPTImage)
		params.Quality = openai.ImageGenerateParamsQuality("high")
	}

	resp, err := client.Images.Generate(ctx, params)
	if err != nil {
		return thumbgen.EncodedImage{}, classifyError(err, model)
	}
	return firstImage(resp, model)
}

func (g *OpenAIGenerator) edit(ctx context.Context, client *openai.Client, prompt string, attachments []thumbgen.Attachment) (thumbgen.EncodedImage, error) {
	if len(attachments) > maxEditImages {
		return thumbgen.EncodedImage{}, fmt.Errorf("%w: %d (max %d)", thumbgen.ErrTooManyImages, len(attachments), maxEditImages)
	}

	files := make([]io.Reader, 0, len(attachments))
	for i, att := range attachments {
		data, err := thumbgen.DecodeBytes(att.EncodedImage)
		if err != nil {
			return thumbgen.EncodedImage{}, fmt.Errorf("attachment %d (%s): %w", i+1, att.Role, err)
		}
		name := fmt.Sprintf("%02d-%s%s", i+1, att.Role, extension(att.MIMEType))
		files = append(files, openai.File(bytes.NewReader(data), name, att.MIMEType))
	}

	resp, err := client.Images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt: prompt,
		Model:  openai.ImageModel(APIModelGPTImage1),
		N:      openai.Int(1),
		Size:   openai.ImageEditParamsSize(landscapeGPTImage),
	})
	if err != nil {
		return thumbgen.EncodedImage{}, classifyError(err, APIModelGPTImage1)
	}
	return firstImage(resp, APIModelGPTImage1)
}

// ValidateCredential lists models, the cheapest authenticated request.
func (g *OpenAIGenerator) ValidateCredential(ctx context.Context, credential thumbgen.Credential) error {
	client, err := g.client(credential)
	if err != nil {
		return err
	}

	if _, err := client.Models.List(ctx); err != nil {
		return fmt.Errorf("%w: openai: %w", thumbgen.ErrInvalidCredential, classifyError(err, "models"))
	}
	return nil
}

// AnalyzeImage sends image as a data URL with the review instruction to the
// vision chat model and returns its suggestions.
func (g *OpenAIGenerator) AnalyzeImage(ctx context.Context, credential thumbgen.Credential, image thumbgen.EncodedImage, goal string) (string, error) {
	client, err := g.client(credential)
	if err != nil {
		return "", err
	}

	dataURL, err := thumbgen.DecodeForDisplay(image)
	if err != nil {
		return "", err
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     APIModelVision,
		MaxTokens: openai.Int(analysisMaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(thumbgen.AnalysisPrompt(goal)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", classifyError(err, APIModelVision)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &thumbgen.ProviderResponseError{
			Provider: thumbgen.ProviderOpenAI,
			Model:    APIModelVision,
			Reason:   "no analysis returned",
		}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Models returns the model definitions supported by this provider.
// The first model (dall-e-3) is the default.
func (g *OpenAIGenerator) Models() []thumbgen.ModelInfo {
	return []thumbgen.ModelInfo{
		DallE3Info,
		GPTImage1Info,
	}
}

// Close drops the cached clients.
func (g *OpenAIGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clients = make(map[thumbgen.Credential]*openai.Client)
	return nil
}

func (g *OpenAIGenerator) client(credential thumbgen.Credential) (*openai.Client, error) {
	if err := thumbgen.ValidateCredential(credential, thumbgen.ProviderOpenAI); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[credential]; ok {
		return c, nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(string(credential)),
		option.WithMaxRetries(0),
	}
	if g.baseURL != "" {
		opts = append(opts, option.WithBaseURL(g.baseURL))
	}
	if g.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(g.httpClient))
	}

	c := openai.NewClient(opts...)
	g.clients[credential] = &c
	return &c, nil
}

// firstImage decodes the first entry of an images response.
func firstImage(resp *openai.ImagesResponse, model string) (thumbgen.EncodedImage, error) {
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return thumbgen.EncodedImage{}, &thumbgen.ProviderResponseError{
			Provider: thumbgen.ProviderOpenAI,
			Model:    model,
			Reason:   "no image returned",
		}
	}

	b64 := resp.Data[0].B64JSON
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return thumbgen.EncodedImage{}, &thumbgen.DecodeError{Reason: "invalid base64 in response", Err: err}
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return thumbgen.EncodedImage{Data: b64, MIMEType: mimeType}, nil
}

// classifyError wraps 429 responses in a RateLimitError.
func classifyError(err error, model string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &thumbgen.RateLimitError{
			RetryAfter: 60 * time.Second,
			LimitType:  "requests",
			Model:      model,
			Err:        err,
		}
	}
	return fmt.Errorf("openai request failed: %w", err)
}

func extension(mimeType string) string {
	switch thumbgen.NormalizeMIMEType(mimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
