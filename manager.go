package thumbgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mhpenta/thumbgen/keystore"
	"github.com/mhpenta/thumbgen/ratelimiter"
)

const (
	// DefaultCount is the number of variants generated when a caller has no preference.
	DefaultCount = 3

	// MaxCount is the default ceiling on variants per run.
	MaxCount = 10
)

var (
	// ErrModelNotRegistered is returned when a model has no registered provider.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrProviderNotConfigured is returned when no generator serves a provider.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrValidationUnsupported is returned when a provider cannot check credentials.
	ErrValidationUnsupported = errors.New("credential validation not supported")

	// ErrAnalysisUnsupported is returned when a provider cannot review images.
	ErrAnalysisUnsupported = errors.New("image analysis not supported")
)

// ModelMapping maps a model identifier to its provider and actual model name.
type ModelMapping struct {
	Provider        Provider
	ActualModelName string
}

// GenerationRequest describes one orchestration run.
type GenerationRequest struct {
	// Provider selects the service. Empty uses the model's provider, then the
	// manager default.
	Provider Provider

	// Model is a public model name. Empty selects the provider's default model.
	Model Model

	// Credential overrides the credential store for this run.
	Credential Credential

	// Description of the desired thumbnail (required)
	Description string

	// MainImage is the subject to feature (optional)
	MainImage *InputImage

	// StyleTemplate is a template reference resolved by the TemplateSource (optional)
	StyleTemplate string

	// ReferenceImages are style inspiration images (optional)
	ReferenceImages []InputImage

	// Count is the number of attempts; values above the ceiling are clamped
	Count int

	AspectRatio AspectRatio
	Size        ImageSize
	Temperature *float32

	// RunID tags the emitted images. Empty generates a new one.
	RunID string
}

// Manager routes generation to registered providers and orchestrates
// multi-attempt thumbnail runs.
type Manager struct {
	// Model to provider mapping
	modelMappings map[Model]ModelMapping
	modelOrder    []Model

	// Provider instances and their default models
	providers       map[Provider]ImageGenerator
	providerDefault map[Provider]Model
	defaultProvider Provider

	// Rate limiting (per model)
	rateLimiters *ratelimiter.Registry

	// Model info (per model)
	modelInfo map[Model]*ModelInfo

	logger *slog.Logger

	// Storage for persisting downloaded images (optional)
	storage Storage

	// Credentials used when a request carries none (optional)
	credentials keystore.Store

	// Style template resolver (optional)
	templates TemplateSource

	variation      PromptVariation
	tokenEstimator TokenEstimator
	maxCount       int

	mu sync.RWMutex
}

// Ensure Manager implements the interfaces.
var (
	_ ImageGenerator      = (*Manager)(nil)
	_ CredentialValidator = (*Manager)(nil)
)

// New creates an empty Manager. Register generators with RegisterProvider.
func New() *Manager {
	return &Manager{
		logger:          slog.Default(),
		modelMappings:   make(map[Model]ModelMapping),
		providers:       make(map[Provider]ImageGenerator),
		providerDefault: make(map[Provider]Model),
		rateLimiters:    ratelimiter.NewRegistry(),
		modelInfo:       make(map[Model]*ModelInfo),
		variation:       NewStyleRotation(),
		tokenEstimator:  NewSimpleTokenEstimator(),
		maxCount:        MaxCount,
	}
}

// RegisterProvider registers a generator and all the models it serves.
// The first model of the generator becomes its provider's default; the first
// provider registered becomes the manager default.
func (m *Manager) RegisterProvider(gen ImageGenerator) *Manager {
	models := gen.Models()
	for i := range models {
		info := models[i]

		m.mu.Lock()
		m.providers[info.Provider] = gen
		if _, ok := m.providerDefault[info.Provider]; !ok {
			m.providerDefault[info.Provider] = Model(info.Name)
		}
		if m.defaultProvider == "" {
			m.defaultProvider = info.Provider
		}
		m.mu.Unlock()

		m.RegisterModel(Model(info.Name),
			ModelMapping{
				Provider:        info.Provider,
				ActualModelName: info.APIModelName,
			},
			&info)
	}
	return m
}

// RegisterModel registers a model with full info (including rate limits).
// Uses the default in-memory rate limiter. Use SetRateLimiter to override with a custom implementation.
func (m *Manager) RegisterModel(model Model, mapping ModelMapping, info *ModelInfo) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.modelMappings[model]; !ok {
		m.modelOrder = append(m.modelOrder, model)
	}
	m.modelMappings[model] = mapping
	m.modelInfo[model] = info

	if info != nil && (info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0) {
		m.rateLimiters.Set(string(model), ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	}

	return m
}

// SetRateLimiter sets a custom rate limiter for a model. A nil limiter
// removes throttling for that model.
func (m *Manager) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Manager {
	m.rateLimiters.Set(string(model), limiter)
	return m
}

// SetDefaultProvider sets the provider used when a request names none.
func (m *Manager) SetDefaultProvider(provider Provider) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultProvider = provider
	return m
}

// DefaultProvider returns the provider used when a request names none.
func (m *Manager) DefaultProvider() Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProvider
}

// SetLogger sets a structured logger for the manager.
func (m *Manager) SetLogger(logger *slog.Logger) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger = logger
	return m
}

// SetStorage sets a storage backend for downloaded images.
func (m *Manager) SetStorage(storage Storage) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.storage = storage
	return m
}

// Storage returns the configured storage backend, or nil if not set.
func (m *Manager) Storage() Storage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storage
}

// SaveImages writes images to the configured storage as thumbnail-{n}.png.
// If no storage is configured, returns ErrStorageNotConfigured.
func (m *Manager) SaveImages(ctx context.Context, images []GeneratedImage) ([]StorageResult, error) {
	return SaveToStorage(ctx, m.Storage(), images)
}

// RunGeneration fans out req.Count generation attempts and joins them.
//
// Preconditions (credential, description) are checked before any network
// activity. Each successful image is passed to onEachResult in completion
// order; onEachResult is only ever called from the calling goroutine. If every
// attempt fails the error is an *AggregateError carrying the first failure.
// With at least one success the partial list is returned and the failures
// are only logged.
func (m *Manager) RunGeneration(ctx context.Context, req *GenerationRequest, onEachResult func(GeneratedImage)) ([]GeneratedImage, error) {
	plan, err := m.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.count == 0 {
		return []GeneratedImage{}, nil
	}
	return m.execute(ctx, plan, onEachResult)
}

// runPlan is everything an attempt needs, resolved once per run.
type runPlan struct {
	runID       string
	provider    Provider
	model       Model
	gen         ImageGenerator
	credential  Credential
	description string
	count       int
	attachments []Attachment
	layout      PromptLayout
	config      *GenerateConfig
	limiter     ratelimiter.Limiter
	variation   PromptVariation
	estimator   TokenEstimator
	logger      *slog.Logger
}

func (m *Manager) prepare(ctx context.Context, req *GenerationRequest) (*runPlan, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "generation request is required"}
	}

	provider, model, mapping, gen, err := m.resolve(req.Provider, req.Model)
	if err != nil {
		return nil, err
	}

	if err := ValidateDescription(req.Description); err != nil {
		return nil, err
	}
	credential, err := m.resolveCredential(ctx, provider, req.Credential)
	if err != nil {
		return nil, err
	}
	if err := ValidateCredential(credential, provider); err != nil {
		return nil, err
	}

	m.mu.RLock()
	plan := &runPlan{
		runID:       req.RunID,
		provider:    provider,
		model:       model,
		gen:         gen,
		credential:  credential,
		description: strings.TrimSpace(req.Description),
		count:       req.Count,
		variation:   m.variation,
		estimator:   m.tokenEstimator,
		logger:      m.logger,
	}
	maxCount := m.maxCount
	info := m.modelInfo[model]
	m.mu.RUnlock()

	if plan.runID == "" {
		plan.runID = uuid.NewString()
	}
	if plan.count <= 0 {
		plan.count = 0
		return plan, nil
	}
	if plan.count > maxCount {
		plan.logger.Debug("clamping requested count", "requested", plan.count, "max", maxCount)
		plan.count = maxCount
	}

	plan.limiter, _ = m.rateLimiters.Get(string(model))

	plan.config = &GenerateConfig{
		Model:       Model(mapping.ActualModelName),
		Size:        req.Size,
		AspectRatio: req.AspectRatio,
		Temperature: req.Temperature,
	}
	if plan.config.AspectRatio == AspectRatioAuto {
		plan.config.AspectRatio = AspectRatio16x9
	}

	var mainEnc *EncodedImage
	if req.MainImage != nil {
		enc, err := EncodeToTransport(*req.MainImage)
		if err != nil {
			return nil, fmt.Errorf("main image: %w", err)
		}
		mainEnc = &enc
	}

	refs := make([]EncodedImage, 0, len(req.ReferenceImages))
	for i, img := range req.ReferenceImages {
		enc, err := EncodeToTransport(img)
		if err != nil {
			return nil, fmt.Errorf("reference image %d: %w", i+1, err)
		}
		refs = append(refs, enc)
	}

	tmplEnc := m.loadTemplate(ctx, plan.logger, req.StyleTemplate)

	plan.attachments, plan.layout = AttachmentOrder(mainEnc, tmplEnc, refs)
	if err := ValidateAttachmentCount(len(plan.attachments)); err != nil {
		return nil, err
	}
	if info != nil && len(plan.attachments) > 0 {
		if !info.Capabilities.SupportsImageInput {
			return nil, fmt.Errorf("model %s does not accept input images", model)
		}
		if limit := info.Capabilities.MaxInputImages; limit > 0 && len(plan.attachments) > limit {
			return nil, fmt.Errorf("%w: %d (max %d for %s)", ErrTooManyImages, len(plan.attachments), limit, model)
		}
	}

	return plan, nil
}

// loadTemplate resolves a style template. Any failure degrades to no template.
func (m *Manager) loadTemplate(ctx context.Context, logger *slog.Logger, ref string) *EncodedImage {
	if ref == "" {
		return nil
	}

	m.mu.RLock()
	source := m.templates
	m.mu.RUnlock()

	if source == nil {
		logger.Warn("no template source configured, continuing without style template", "template", ref)
		return nil
	}

	img, err := source.FetchTemplate(ctx, ref)
	if err != nil {
		logger.Warn("style template unavailable, continuing without it",
			"template", ref,
			"error", err.Error(),
		)
		return nil
	}

	enc, err := EncodeToTransport(img)
	if err != nil {
		logger.Warn("style template unreadable, continuing without it",
			"template", ref,
			"error", err.Error(),
		)
		return nil
	}
	return &enc
}

type attemptOutcome struct {
	attempt int
	image   GeneratedImage
	err     error
}

func (m *Manager) execute(ctx context.Context, plan *runPlan, onEachResult func(GeneratedImage)) ([]GeneratedImage, error) {
	start := time.Now()

	plan.logger.Debug("starting thumbnail generation",
		"run_id", plan.runID,
		"provider", plan.provider.String(),
		"model", string(plan.model),
		"count", plan.count,
		"attachments", len(plan.attachments),
	)

	outcomes := make(chan attemptOutcome, plan.count)
	for i := 0; i < plan.count; i++ {
		go func(attempt int) {
			img, err := m.runAttempt(ctx, plan, attempt)
			outcomes <- attemptOutcome{attempt: attempt, image: img, err: err}
		}(i)
	}

	images := make([]GeneratedImage, 0, plan.count)
	var firstErr error
	failed := 0
	for range plan.count {
		out := <-outcomes
		if out.err != nil {
			failed++
			if firstErr == nil {
				firstErr = out.err
			}
			plan.logger.Warn("thumbnail attempt failed",
				"run_id", plan.runID,
				"model", string(plan.model),
				"attempt", out.attempt,
				"error", out.err.Error(),
			)
			continue
		}

		if onEachResult != nil {
			onEachResult(out.image)
		}
		images = append(images, out.image)
	}

	plan.logger.Info("thumbnail generation completed",
		"run_id", plan.runID,
		"provider", plan.provider.String(),
		"model", string(plan.model),
		"duration_ms", time.Since(start).Milliseconds(),
		"requested", plan.count,
		"succeeded", len(images),
		"failed", failed,
	)

	if len(images) == 0 {
		return nil, &AggregateError{Attempts: plan.count, Err: firstErr}
	}
	return images, nil
}

func (m *Manager) runAttempt(ctx context.Context, plan *runPlan, attempt int) (GeneratedImage, error) {
	description := plan.variation.Vary(plan.description, attempt)
	prompt := BuildPrompt(description, plan.layout)

	if err := checkRateLimit(plan.limiter, plan.estimator, plan.model, prompt, plan.layout.ImageCount()); err != nil {
		return GeneratedImage{}, err
	}

	enc, err := plan.gen.GenerateOne(ctx, plan.credential, prompt, plan.attachments, plan.config)
	if err != nil {
		return GeneratedImage{}, err
	}
	if enc.Data == "" {
		return GeneratedImage{}, &ProviderResponseError{
			Provider: plan.provider,
			Model:    string(plan.model),
			Reason:   "no image in response",
		}
	}

	return GeneratedImage{
		ID:          fmt.Sprintf("generated-%d-%d", time.Now().UnixMilli(), attempt),
		RunID:       plan.runID,
		Data:        enc.Data,
		MIMEType:    enc.MIMEType,
		Attempt:     attempt,
		Description: description,
	}, nil
}

// GenerateOne routes a single request to the provider serving
// genConfig.Model (a public model name; empty selects the default provider's
// default model).
func (m *Manager) GenerateOne(ctx context.Context, credential Credential, prompt string, attachments []Attachment, genConfig *GenerateConfig) (EncodedImage, error) {
	if genConfig == nil {
		genConfig = DefaultConfig()
	}

	provider, model, mapping, gen, err := m.resolve("", genConfig.Model)
	if err != nil {
		return EncodedImage{}, err
	}
	if err := ValidateCredential(credential, provider); err != nil {
		return EncodedImage{}, err
	}

	m.mu.RLock()
	estimator := m.tokenEstimator
	m.mu.RUnlock()

	limiter, _ := m.rateLimiters.Get(string(model))
	if err := checkRateLimit(limiter, estimator, model, prompt, len(attachments)); err != nil {
		return EncodedImage{}, err
	}

	return gen.GenerateOne(ctx, credential, prompt, attachments, genConfig.WithModel(Model(mapping.ActualModelName)))
}

// ValidateCredential checks credential against the default provider.
func (m *Manager) ValidateCredential(ctx context.Context, credential Credential) error {
	return m.ValidateProviderCredential(ctx, m.DefaultProvider(), credential)
}

// ValidateProviderCredential checks credential with one inexpensive request
// to provider.
func (m *Manager) ValidateProviderCredential(ctx context.Context, provider Provider, credential Credential) error {
	if err := ValidateCredential(credential, provider); err != nil {
		return err
	}

	gen, err := m.getProvider(provider)
	if err != nil {
		return err
	}

	validator, ok := gen.(CredentialValidator)
	if !ok {
		return fmt.Errorf("%w: %s", ErrValidationUnsupported, provider)
	}
	return validator.ValidateCredential(ctx, credential)
}

// AnalyzeImage asks provider (empty selects the default) for suggestions that
// would make img a more clickable thumbnail. The credential is resolved like
// RunGeneration's: explicit value first, then the credential store.
func (m *Manager) AnalyzeImage(ctx context.Context, provider Provider, credential Credential, img InputImage, goal string) (string, error) {
	if provider == "" {
		provider = m.DefaultProvider()
	}

	gen, err := m.getProvider(provider)
	if err != nil {
		return "", err
	}
	analyzer, ok := gen.(ImageAnalyzer)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAnalysisUnsupported, provider)
	}

	credential, err = m.resolveCredential(ctx, provider, credential)
	if err != nil {
		return "", err
	}
	if err := ValidateCredential(credential, provider); err != nil {
		return "", err
	}

	enc, err := EncodeToTransport(img)
	if err != nil {
		return "", fmt.Errorf("image: %w", err)
	}

	m.mu.RLock()
	logger := m.logger
	m.mu.RUnlock()

	start := time.Now()
	suggestions, err := analyzer.AnalyzeImage(ctx, credential, enc, goal)
	if err != nil {
		logger.Warn("image analysis failed",
			"provider", provider.String(),
			"error", err.Error(),
		)
		return "", err
	}

	logger.Debug("image analysis completed",
		"provider", provider.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return suggestions, nil
}

// Models returns all registered model definitions in registration order.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.modelOrder))
	for _, model := range m.modelOrder {
		if info := m.modelInfo[model]; info != nil {
			models = append(models, *info)
		}
	}
	return models
}

// ListModels returns all registered models.
func (m *Manager) ListModels() []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Model(nil), m.modelOrder...)
}

// GetModelProvider returns the provider for a model.
func (m *Manager) GetModelProvider(model Model) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.modelMappings[model]
	if !ok {
		return "", false
	}
	return mapping.Provider, true
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok
}

// DefaultModel returns the model used for provider when a request names none.
func (m *Manager) DefaultModel(provider Provider) (Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, ok := m.providerDefault[provider]
	return model, ok
}

// Close releases all provider resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	closed := make(map[ImageGenerator]bool)
	for provider, gen := range m.providers {
		if closed[gen] {
			continue
		}
		closed[gen] = true
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", provider, err))
		}
	}
	m.providers = make(map[Provider]ImageGenerator)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// checkRateLimit consumes the estimated budget for one attempt without waiting.
func checkRateLimit(limiter ratelimiter.Limiter, estimator TokenEstimator, model Model, prompt string, imageCount int) error {
	if limiter == nil {
		return nil
	}

	estimatedTokens := estimator.EstimateTokens(prompt, imageCount)
	if !limiter.TryConsume(estimatedTokens) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  "attempt",
			Model:      string(model),
		}
	}
	return nil
}

// resolve picks the provider, public model and generator for a request.
func (m *Manager) resolve(provider Provider, model Model) (Provider, Model, ModelMapping, ImageGenerator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if provider == "" && model != "" {
		if mapping, ok := m.modelMappings[model]; ok {
			provider = mapping.Provider
		}
	}
	if provider == "" {
		provider = m.defaultProvider
	}

	gen, ok := m.providers[provider]
	if !ok {
		return "", "", ModelMapping{}, nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, provider)
	}

	if model == "" {
		model = m.providerDefault[provider]
	}

	mapping, ok := m.modelMappings[model]
	if !ok {
		return "", "", ModelMapping{}, nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}
	if mapping.Provider != provider {
		return "", "", ModelMapping{}, nil, fmt.Errorf("%w: %s is not served by %s", ErrModelNotRegistered, model, provider)
	}

	return provider, model, mapping, gen, nil
}

// resolveCredential prefers the explicit credential, then the store.
func (m *Manager) resolveCredential(ctx context.Context, provider Provider, explicit Credential) (Credential, error) {
	if strings.TrimSpace(string(explicit)) != "" {
		return explicit, nil
	}

	m.mu.RLock()
	store := m.credentials
	m.mu.RUnlock()

	if store == nil {
		return "", nil
	}

	key, err := store.Get(ctx, provider.String())
	if errors.Is(err, keystore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s credential: %w", provider, err)
	}
	return Credential(key), nil
}

// getProvider returns the provider instance for the given provider type.
func (m *Manager) getProvider(provider Provider) (ImageGenerator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen, ok := m.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return gen, nil
}
