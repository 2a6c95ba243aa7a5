package thumbgen

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateOneFunc        func(ctx context.Context, credential Credential, prompt string, attachments []Attachment, config *GenerateConfig) (EncodedImage, error)
	ModelsFunc             func() []ModelInfo
	CloseFunc              func() error
	ValidateCredentialFunc func(ctx context.Context, credential Credential) error
	AnalyzeImageFunc       func(ctx context.Context, credential Credential, image EncodedImage, goal string) (string, error)

	calls atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (m *MockImageGenerator) GenerateOne(ctx context.Context, credential Credential, prompt string, attachments []Attachment, config *GenerateConfig) (EncodedImage, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateOneFunc != nil {
		return m.GenerateOneFunc(ctx, credential, prompt, attachments, config)
	}
	return EncodedImage{Data: "aW1hZ2U=", MIMEType: "image/png"}, nil
}

func (m *MockImageGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockImageGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockImageGenerator) ValidateCredential(ctx context.Context, credential Credential) error {
	if m.ValidateCredentialFunc != nil {
		return m.ValidateCredentialFunc(ctx, credential)
	}
	return nil
}

func (m *MockImageGenerator) AnalyzeImage(ctx context.Context, credential Credential, image EncodedImage, goal string) (string, error) {
	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, credential, image, goal)
	}
	return "1. Use bigger text", nil
}

// Calls returns how many times GenerateOne was invoked.
func (m *MockImageGenerator) Calls() int {
	return int(m.calls.Load())
}

// Prompts returns the prompts received so far.
func (m *MockImageGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// mockModels returns a single image-capable model for provider.
func mockModels(provider Provider, names ...string) func() []ModelInfo {
	return func() []ModelInfo {
		infos := make([]ModelInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, ModelInfo{
				Name:         name,
				Provider:     provider,
				APIModelName: name + "-api",
				Capabilities: ModelCapabilities{
					SupportsTextToImage: true,
					SupportsImageInput:  true,
					MaxInputImages:      MaxInputImages,
				},
			})
		}
		return infos
	}
}

// templateSourceFunc adapts a function to TemplateSource.
type templateSourceFunc func(ctx context.Context, ref string) (InputImage, error)

func (f templateSourceFunc) FetchTemplate(ctx context.Context, ref string) (InputImage, error) {
	return f(ctx, ref)
}

// plainGenerator hides the optional capabilities of MockImageGenerator.
type plainGenerator struct {
	ImageGenerator
}

// MockStore is a mock implementation of keystore.Store.
type MockStore struct {
	GetFunc    func(ctx context.Context, provider string) (string, error)
	SetFunc    func(ctx context.Context, provider, key string) error
	RemoveFunc func(ctx context.Context, provider string) error

	calls atomic.Int32
}

func (s *MockStore) Get(ctx context.Context, provider string) (string, error) {
	s.calls.Add(1)
	if s.GetFunc != nil {
		return s.GetFunc(ctx, provider)
	}
	return "", nil
}

func (s *MockStore) Set(ctx context.Context, provider, key string) error {
	s.calls.Add(1)
	if s.SetFunc != nil {
		return s.SetFunc(ctx, provider, key)
	}
	return nil
}

func (s *MockStore) Remove(ctx context.Context, provider string) error {
	s.calls.Add(1)
	if s.RemoveFunc != nil {
		return s.RemoveFunc(ctx, provider)
	}
	return nil
}

// Calls returns how many store methods were invoked.
func (s *MockStore) Calls() int {
	return int(s.calls.Load())
}
