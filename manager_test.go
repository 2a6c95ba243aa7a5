package thumbgen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mhpenta/thumbgen/keystore"
	"github.com/mhpenta/thumbgen/ratelimiter"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(gen *MockImageGenerator, opts ...ManagerOption) *Manager {
	if gen.ModelsFunc == nil {
		gen.ModelsFunc = mockModels(ProviderGemini, "test-model")
	}
	opts = append([]ManagerOption{WithLogger(quietLogger())}, opts...)
	return NewManager(gen, opts...)
}

func testRequest(count int) *GenerationRequest {
	return &GenerationRequest{
		Credential:  "test-key",
		Description: "a cat playing chess",
		Count:       count,
	}
}

func TestRunGeneration_AllSucceed(t *testing.T) {
	gen := &MockImageGenerator{}
	manager := newTestManager(gen)
	defer manager.Close()

	var callbacks int
	images, err := manager.RunGeneration(context.Background(), testRequest(4), func(GeneratedImage) {
		callbacks++
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 4 || callbacks != 4 {
		t.Fatalf("got %d images and %d callbacks, want 4 and 4", len(images), callbacks)
	}
	if gen.Calls() != 4 {
		t.Errorf("expected 4 provider calls, got %d", gen.Calls())
	}

	ids := make(map[string]bool)
	attempts := make(map[int]bool)
	for _, img := range images {
		if !strings.HasPrefix(img.ID, "generated-") {
			t.Errorf("unexpected id format %q", img.ID)
		}
		if ids[img.ID] {
			t.Errorf("duplicate id %q", img.ID)
		}
		ids[img.ID] = true
		attempts[img.Attempt] = true

		if img.RunID == "" || img.RunID != images[0].RunID {
			t.Errorf("images should share one run id, got %q and %q", img.RunID, images[0].RunID)
		}
		if img.Data == "" || img.MIMEType != "image/png" {
			t.Errorf("unexpected image payload %+v", img)
		}
	}
	if len(attempts) != 4 {
		t.Errorf("expected 4 distinct attempts, got %v", attempts)
	}
}

func TestRunGeneration_AllFail(t *testing.T) {
	boom := errors.New("boom")
	gen := &MockImageGenerator{
		GenerateOneFunc: func(context.Context, Credential, string, []Attachment, *GenerateConfig) (EncodedImage, error) {
			return EncodedImage{}, boom
		},
	}
	manager := newTestManager(gen)

	var callbacks int
	images, err := manager.RunGeneration(context.Background(), testRequest(3), func(GeneratedImage) {
		callbacks++
	})

	var aggErr *AggregateError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregateError, got %T: %v", err, err)
	}
	if aggErr.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", aggErr.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected first failure to be wrapped, got %v", err)
	}
	if images != nil || callbacks != 0 {
		t.Errorf("expected no images and no callbacks, got %d and %d", len(images), callbacks)
	}
	if gen.Calls() != 3 {
		t.Errorf("expected 3 provider calls, got %d", gen.Calls())
	}
}

func TestRunGeneration_PartialFailure(t *testing.T) {
	tests := []struct {
		name  string
		count int
		fail  int32
	}{
		{name: "one of three fails", count: 3, fail: 1},
		{name: "two of five fail", count: 5, fail: 2},
		{name: "four of five fail", count: 5, fail: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n atomic.Int32
			gen := &MockImageGenerator{
				GenerateOneFunc: func(context.Context, Credential, string, []Attachment, *GenerateConfig) (EncodedImage, error) {
					if n.Add(1) <= tt.fail {
						return EncodedImage{}, errors.New("quota exceeded")
					}
					return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
				},
			}
			manager := newTestManager(gen)

			var callbacks int
			images, err := manager.RunGeneration(context.Background(), testRequest(tt.count), func(GeneratedImage) {
				callbacks++
			})
			if err != nil {
				t.Fatalf("partial success should not error, got %v", err)
			}
			want := tt.count - int(tt.fail)
			if len(images) != want || callbacks != want {
				t.Errorf("got %d images and %d callbacks, want %d", len(images), callbacks, want)
			}
		})
	}
}

func TestRunGeneration_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       *GenerationRequest
		store     keystore.Store
		wantField string
	}{
		{
			name:      "whitespace description",
			req:       &GenerationRequest{Credential: "key", Description: "   \t\n", Count: 3},
			wantField: "description",
		},
		{
			name:      "blank description with failing store",
			req:       &GenerationRequest{Description: "  ", Count: 3},
			store:     &MockStore{GetFunc: func(context.Context, string) (string, error) { return "", errors.New("connection refused") }},
			wantField: "description",
		},
		{
			name:      "missing credential",
			req:       &GenerationRequest{Description: "desc", Count: 3},
			wantField: "credential",
		},
		{
			name:      "blank credential",
			req:       &GenerationRequest{Credential: "  ", Description: "desc", Count: 3},
			wantField: "credential",
		},
		{
			name:      "nil request",
			req:       nil,
			wantField: "request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockImageGenerator{}
			var opts []ManagerOption
			if tt.store != nil {
				opts = append(opts, WithCredentialStore(tt.store))
			}
			manager := newTestManager(gen, opts...)

			var callbacks int
			_, err := manager.RunGeneration(context.Background(), tt.req, func(GeneratedImage) {
				callbacks++
			})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tt.wantField)
			}
			if gen.Calls() != 0 || callbacks != 0 {
				t.Errorf("expected no provider calls or callbacks, got %d and %d", gen.Calls(), callbacks)
			}
			if store, ok := tt.store.(*MockStore); ok && store.Calls() != 0 {
				t.Errorf("expected no credential store reads, got %d", store.Calls())
			}
		})
	}
}

func TestRunGeneration_CredentialFromStore(t *testing.T) {
	var gotCredential atomic.Value
	gen := &MockImageGenerator{
		GenerateOneFunc: func(_ context.Context, credential Credential, _ string, _ []Attachment, _ *GenerateConfig) (EncodedImage, error) {
			gotCredential.Store(credential)
			return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
		},
	}

	store := keystore.NewMemoryStore()
	manager := newTestManager(gen, WithCredentialStore(store))

	req := testRequest(1)
	req.Credential = ""

	if _, err := manager.RunGeneration(context.Background(), req, nil); !IsValidationError(err) {
		t.Fatalf("expected ValidationError with empty store, got %v", err)
	}

	if err := store.Set(context.Background(), "gemini", "stored-key"); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.RunGeneration(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotCredential.Load(); got != Credential("stored-key") {
		t.Errorf("provider received credential %v", got)
	}

	req.Credential = "explicit-key"
	if _, err := manager.RunGeneration(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotCredential.Load(); got != Credential("explicit-key") {
		t.Errorf("explicit credential should win, provider received %v", got)
	}
}

func TestRunGeneration_Count(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		opts      []ManagerOption
		wantCalls int
	}{
		{name: "zero", count: 0, wantCalls: 0},
		{name: "negative", count: -2, wantCalls: 0},
		{name: "above ceiling", count: 15, wantCalls: MaxCount},
		{name: "custom ceiling", count: 6, opts: []ManagerOption{WithMaxCount(4)}, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockImageGenerator{}
			manager := newTestManager(gen, tt.opts...)

			images, err := manager.RunGeneration(context.Background(), testRequest(tt.count), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if images == nil {
				t.Error("expected a non-nil slice")
			}
			if len(images) != tt.wantCalls || gen.Calls() != tt.wantCalls {
				t.Errorf("got %d images and %d calls, want %d", len(images), gen.Calls(), tt.wantCalls)
			}
		})
	}
}

func TestRunGeneration_AttachmentOrder(t *testing.T) {
	var gotAttachments atomic.Value
	gen := &MockImageGenerator{
		GenerateOneFunc: func(_ context.Context, _ Credential, _ string, attachments []Attachment, _ *GenerateConfig) (EncodedImage, error) {
			gotAttachments.Store(attachments)
			return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
		},
	}

	tmpl := testInputImage(t)
	source := templateSourceFunc(func(_ context.Context, ref string) (InputImage, error) {
		if ref != "2" {
			t.Errorf("unexpected template ref %q", ref)
		}
		return tmpl, nil
	})
	manager := newTestManager(gen, WithTemplateSource(source))

	main := testInputImage(t)
	req := testRequest(2)
	req.MainImage = &main
	req.StyleTemplate = "2"
	req.ReferenceImages = []InputImage{testInputImage(t), testInputImage(t)}

	if _, err := manager.RunGeneration(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attachments := gotAttachments.Load().([]Attachment)
	wantRoles := []AttachmentRole{RoleMain, RoleTemplate, RoleReference, RoleReference}
	if len(attachments) != len(wantRoles) {
		t.Fatalf("got %d attachments, want %d", len(attachments), len(wantRoles))
	}
	for i, role := range wantRoles {
		if attachments[i].Role != role {
			t.Errorf("attachment %d role = %s, want %s", i, attachments[i].Role, role)
		}
	}

	for _, prompt := range gen.Prompts() {
		for _, want := range []string{"Image 1 is the main subject", "Image 2 is a style template", "Images 3-4 are reference images"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	}
}

func TestRunGeneration_TemplateFailureDegrades(t *testing.T) {
	var gotAttachments atomic.Value
	gen := &MockImageGenerator{
		GenerateOneFunc: func(_ context.Context, _ Credential, _ string, attachments []Attachment, _ *GenerateConfig) (EncodedImage, error) {
			gotAttachments.Store(attachments)
			return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
		},
	}

	source := templateSourceFunc(func(context.Context, string) (InputImage, error) {
		return InputImage{}, &FetchError{URL: "http://assets/1.jpg", StatusCode: 404}
	})
	manager := newTestManager(gen, WithTemplateSource(source))

	main := testInputImage(t)
	req := testRequest(1)
	req.MainImage = &main
	req.StyleTemplate = "1"

	images, err := manager.RunGeneration(context.Background(), req, nil)
	if err != nil || len(images) != 1 {
		t.Fatalf("expected run to proceed without template, got %d images, err %v", len(images), err)
	}

	attachments := gotAttachments.Load().([]Attachment)
	if len(attachments) != 1 || attachments[0].Role != RoleMain {
		t.Errorf("expected only the main image, got %+v", attachments)
	}
	if prompt := gen.Prompts()[0]; strings.Contains(prompt, "style template") {
		t.Errorf("prompt should not mention a template:\n%s", prompt)
	}
}

func TestRunGeneration_InvalidMainImage(t *testing.T) {
	gen := &MockImageGenerator{}
	manager := newTestManager(gen)

	req := testRequest(3)
	req.MainImage = &InputImage{Data: []byte("definitely not a png"), MIMEType: "image/png"}

	_, err := manager.RunGeneration(context.Background(), req, nil)

	var dErr *DecodeError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no provider calls, got %d", gen.Calls())
	}
}

func TestRunGeneration_StyleRotation(t *testing.T) {
	gen := &MockImageGenerator{}
	manager := newTestManager(gen)

	images, err := manager.RunGeneration(context.Background(), testRequest(3), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, img := range images {
		want := "a cat playing chess. Style: " + DefaultStyles[img.Attempt]
		if img.Description != want {
			t.Errorf("attempt %d description = %q, want %q", img.Attempt, img.Description, want)
		}
	}

	gen = &MockImageGenerator{}
	manager = newTestManager(gen, WithPromptVariation(NoVariation{}))
	if _, err := manager.RunGeneration(context.Background(), testRequest(2), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompts := gen.Prompts()
	if len(prompts) != 2 || prompts[0] != prompts[1] {
		t.Errorf("expected identical prompts without variation, got %q", prompts)
	}
}

func TestRunGeneration_RateLimit(t *testing.T) {
	gen := &MockImageGenerator{}
	manager := newTestManager(gen, WithRateLimiter("test-model", ratelimiter.New(0, 2)))

	images, err := manager.RunGeneration(context.Background(), testRequest(5), nil)
	if err != nil {
		t.Fatalf("partial success should not error, got %v", err)
	}
	if len(images) != 2 || gen.Calls() != 2 {
		t.Errorf("got %d images and %d calls, want 2 and 2", len(images), gen.Calls())
	}

	// A token budget smaller than any prompt rejects every attempt.
	manager.SetRateLimiter("test-model", ratelimiter.New(1, 0))
	_, err = manager.RunGeneration(context.Background(), testRequest(2), nil)
	if !IsRateLimitError(err) {
		t.Errorf("expected rate limit failure inside AggregateError, got %v", err)
	}
	if gen.Calls() != 2 {
		t.Errorf("rejected attempts must not reach the provider, got %d calls", gen.Calls())
	}
}

func TestRunGeneration_EmptyProviderResponse(t *testing.T) {
	gen := &MockImageGenerator{
		GenerateOneFunc: func(context.Context, Credential, string, []Attachment, *GenerateConfig) (EncodedImage, error) {
			return EncodedImage{}, nil
		},
	}
	manager := newTestManager(gen)

	_, err := manager.RunGeneration(context.Background(), testRequest(1), nil)

	var prErr *ProviderResponseError
	if !errors.As(err, &prErr) {
		t.Fatalf("expected ProviderResponseError, got %T: %v", err, err)
	}
}

func TestRunGeneration_CallbacksSerialized(t *testing.T) {
	gen := &MockImageGenerator{}
	manager := newTestManager(gen)

	var inCallback atomic.Bool
	var callbacks int
	_, err := manager.RunGeneration(context.Background(), testRequest(MaxCount), func(GeneratedImage) {
		if !inCallback.CompareAndSwap(false, true) {
			t.Error("callback invoked concurrently")
		}
		callbacks++
		inCallback.Store(false)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callbacks != MaxCount {
		t.Errorf("got %d callbacks, want %d", callbacks, MaxCount)
	}
}

func TestRunGeneration_ProviderSelection(t *testing.T) {
	gemini := &MockImageGenerator{ModelsFunc: mockModels(ProviderGemini, "nano", "nano-pro")}

	var gotModel atomic.Value
	openai := &MockImageGenerator{
		ModelsFunc: mockModels(ProviderOpenAI, "dalle", "gpt-image"),
		GenerateOneFunc: func(_ context.Context, _ Credential, _ string, _ []Attachment, config *GenerateConfig) (EncodedImage, error) {
			gotModel.Store(config.Model)
			return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
		},
	}

	manager := NewManager(gemini, WithProvider(openai), WithLogger(quietLogger()))

	if manager.DefaultProvider() != ProviderGemini {
		t.Errorf("default provider = %s, want gemini", manager.DefaultProvider())
	}

	req := testRequest(1)
	req.Provider = ProviderOpenAI
	if _, err := manager.RunGeneration(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gemini.Calls() != 0 || openai.Calls() != 1 {
		t.Errorf("expected only openai to be called, got gemini=%d openai=%d", gemini.Calls(), openai.Calls())
	}
	if got := gotModel.Load(); got != Model("dalle-api") {
		t.Errorf("provider default model should map to API name, got %v", got)
	}

	req = testRequest(1)
	req.Model = "gpt-image"
	if _, err := manager.RunGeneration(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotModel.Load(); got != Model("gpt-image-api") {
		t.Errorf("model should imply its provider, got %v", got)
	}

	req = testRequest(1)
	req.Provider = ProviderGemini
	req.Model = "gpt-image"
	if _, err := manager.RunGeneration(context.Background(), req, nil); !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("expected ErrModelNotRegistered for mismatched provider, got %v", err)
	}

	req = testRequest(1)
	req.Provider = "midjourney"
	if _, err := manager.RunGeneration(context.Background(), req, nil); !errors.Is(err, ErrProviderNotConfigured) {
		t.Errorf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestManager_GenerateOne(t *testing.T) {
	var gotModel atomic.Value
	gen := &MockImageGenerator{
		ModelsFunc: mockModels(ProviderGemini, "test-model"),
		GenerateOneFunc: func(_ context.Context, _ Credential, _ string, _ []Attachment, config *GenerateConfig) (EncodedImage, error) {
			gotModel.Store(config.Model)
			return EncodedImage{Data: "ZGF0YQ==", MIMEType: "image/png"}, nil
		},
	}
	manager := newTestManager(gen)

	enc, err := manager.GenerateOne(context.Background(), "key", "prompt", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Data != "ZGF0YQ==" || gotModel.Load() != Model("test-model-api") {
		t.Errorf("unexpected routing: %+v, model %v", enc, gotModel.Load())
	}

	if _, err := manager.GenerateOne(context.Background(), "", "prompt", nil, nil); !IsValidationError(err) {
		t.Errorf("expected ValidationError for empty credential, got %v", err)
	}
}

func TestManager_ValidateProviderCredential(t *testing.T) {
	invalid := errors.New("invalid key")
	gen := &MockImageGenerator{
		ValidateCredentialFunc: func(_ context.Context, credential Credential) error {
			if credential != "good" {
				return invalid
			}
			return nil
		},
	}
	manager := newTestManager(gen)

	if err := manager.ValidateCredential(context.Background(), "good"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := manager.ValidateProviderCredential(context.Background(), ProviderGemini, "bad"); !errors.Is(err, invalid) {
		t.Errorf("expected provider error, got %v", err)
	}
	if err := manager.ValidateProviderCredential(context.Background(), ProviderGemini, ""); !IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if err := manager.ValidateProviderCredential(context.Background(), ProviderOpenAI, "good"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Errorf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestManager_ModelsAndClose(t *testing.T) {
	var closed int
	gen := &MockImageGenerator{
		ModelsFunc: mockModels(ProviderGemini, "first", "second"),
		CloseFunc: func() error {
			closed++
			return nil
		},
	}
	manager := newTestManager(gen)

	models := manager.Models()
	if len(models) != 2 || models[0].Name != "first" {
		t.Errorf("unexpected models %+v", models)
	}
	if def, ok := manager.DefaultModel(ProviderGemini); !ok || def != "first" {
		t.Errorf("default model = %q, %v", def, ok)
	}
	if p, ok := manager.GetModelProvider("second"); !ok || p != ProviderGemini {
		t.Errorf("GetModelProvider = %q, %v", p, ok)
	}

	if err := manager.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed != 1 {
		t.Errorf("expected generator closed once, got %d", closed)
	}
}

func TestManager_AnalyzeImage(t *testing.T) {
	var gotCredential Credential
	var gotImage EncodedImage
	var gotGoal string
	gen := &MockImageGenerator{
		AnalyzeImageFunc: func(_ context.Context, credential Credential, image EncodedImage, goal string) (string, error) {
			gotCredential, gotImage, gotGoal = credential, image, goal
			return "1. Zoom in on the face", nil
		},
	}

	store := keystore.NewMemoryStore()
	if err := store.Set(context.Background(), "gemini", "stored-key"); err != nil {
		t.Fatal(err)
	}
	manager := newTestManager(gen, WithCredentialStore(store))

	img := testInputImage(t)
	got, err := manager.AnalyzeImage(context.Background(), "", "", img, "cooking channel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1. Zoom in on the face" {
		t.Errorf("suggestions = %q", got)
	}
	if gotCredential != "stored-key" || gotGoal != "cooking channel" {
		t.Errorf("credential = %q, goal = %q", gotCredential, gotGoal)
	}
	if want, _ := EncodeToTransport(img); gotImage != want {
		t.Error("analyzer did not receive the encoded image")
	}
	if gen.Calls() != 0 {
		t.Errorf("analysis should not generate images, got %d calls", gen.Calls())
	}
}

func TestManager_AnalyzeImage_Errors(t *testing.T) {
	providerErr := errors.New("vision unavailable")

	tests := []struct {
		name       string
		gen        ImageGenerator
		provider   Provider
		credential Credential
		image      InputImage
		check      func(error) bool
	}{
		{
			name:       "analysis unsupported",
			gen:        plainGenerator{&MockImageGenerator{ModelsFunc: mockModels(ProviderGemini, "m")}},
			credential: "key",
			check:      func(err error) bool { return errors.Is(err, ErrAnalysisUnsupported) },
		},
		{
			name:       "provider not configured",
			gen:        &MockImageGenerator{ModelsFunc: mockModels(ProviderGemini, "m")},
			provider:   ProviderOpenAI,
			credential: "key",
			check:      func(err error) bool { return errors.Is(err, ErrProviderNotConfigured) },
		},
		{
			name:  "missing credential",
			gen:   &MockImageGenerator{ModelsFunc: mockModels(ProviderGemini, "m")},
			check: IsValidationError,
		},
		{
			name:       "invalid image",
			gen:        &MockImageGenerator{ModelsFunc: mockModels(ProviderGemini, "m")},
			credential: "key",
			image:      InputImage{Data: []byte("not an image"), MIMEType: "image/png"},
			check: func(err error) bool {
				var dErr *DecodeError
				return errors.As(err, &dErr)
			},
		},
		{
			name: "provider failure",
			gen: &MockImageGenerator{
				ModelsFunc: mockModels(ProviderGemini, "m"),
				AnalyzeImageFunc: func(context.Context, Credential, EncodedImage, string) (string, error) {
					return "", providerErr
				},
			},
			credential: "key",
			check:      func(err error) bool { return errors.Is(err, providerErr) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(tt.gen, WithLogger(quietLogger()))
			img := tt.image
			if img.Data == nil {
				img = testInputImage(t)
			}
			_, err := manager.AnalyzeImage(context.Background(), tt.provider, tt.credential, img, "")
			if !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
		})
	}
}
