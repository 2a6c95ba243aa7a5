package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mhpenta/thumbgen"
	"github.com/mhpenta/thumbgen/keystore"
	"github.com/mhpenta/thumbgen/provider/gemini"
	"github.com/mhpenta/thumbgen/provider/openai"
	"github.com/mhpenta/thumbgen/youtube"
)

// openStore returns the configured key store and a function releasing it.
func openStore(cfg storeConfig) (keystore.Store, func() error, error) {
	switch cfg.Kind {
	case "file":
		return keystore.NewFileStore(cfg.File), func() error { return nil }, nil
	case "redis":
		s := keystore.NewRedisStore(cfg.RedisAddr, os.Getenv("THUMBGEN_REDIS_PASSWORD"), cfg.RedisDB)
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown key store %q", cfg.Kind)
	}
}

// newManager wires both providers behind one orchestrator.
func newManager(logger *slog.Logger, store keystore.Store, defaultProvider thumbgen.Provider, opts ...thumbgen.ManagerOption) *thumbgen.Manager {
	base := []thumbgen.ManagerOption{
		thumbgen.WithProvider(openai.New()),
		thumbgen.WithDefaultProvider(defaultProvider),
		thumbgen.WithCredentialStore(store),
		thumbgen.WithLogger(logger),
	}
	return thumbgen.NewManager(gemini.New(), append(base, opts...)...)
}

func templateSource(cfg generateConfig) thumbgen.TemplateSource {
	switch {
	case cfg.TemplateDir != "":
		return &thumbgen.FSTemplateSource{FS: os.DirFS(cfg.TemplateDir)}
	case cfg.TemplateURL != "":
		return &thumbgen.HTTPTemplateSource{BaseURL: cfg.TemplateURL}
	default:
		return nil
	}
}

func runGenerate(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseGenerateFlags(args, stderr)
	if err != nil {
		return usageExit(err, stderr)
	}

	logger := newLogger(stderr, cfg.Verbose)

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer closeStore()

	opts := []thumbgen.ManagerOption{
		thumbgen.WithStorage(&thumbgen.FileStorage{Dir: cfg.OutDir}),
	}
	if src := templateSource(cfg); src != nil {
		opts = append(opts, thumbgen.WithTemplateSource(src))
	}
	manager := newManager(logger, store, thumbgen.Provider(cfg.Provider), opts...)
	defer manager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := buildRequest(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	gallery := thumbgen.NewGallery()
	req.RunID = gallery.Begin()

	_, err = manager.RunGeneration(ctx, req, func(img thumbgen.GeneratedImage) {
		if gallery.Add(img) {
			fmt.Fprintf(stdout, "generated %s (%d/%d)\n", img.ID, len(gallery.Images()), req.Count)
		}
	})
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if thumbgen.IsValidationError(err) {
			return exitUsage
		}
		return exitError
	}

	results, err := manager.SaveImages(ctx, gallery.Images())
	for _, r := range results {
		fmt.Fprintln(stdout, r.Location)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error: saving thumbnails:", err)
		return exitError
	}
	return exitOK
}

// buildRequest loads the local and remote images named by cfg.
func buildRequest(ctx context.Context, cfg generateConfig) (*thumbgen.GenerationRequest, error) {
	req := &thumbgen.GenerationRequest{
		Provider:      thumbgen.Provider(cfg.Provider),
		Model:         thumbgen.Model(cfg.Model),
		Credential:    thumbgen.Credential(cfg.APIKey),
		Description:   cfg.description(),
		StyleTemplate: cfg.Template,
		Count:         cfg.Count,
	}

	switch {
	case cfg.ImagePath != "":
		img, err := thumbgen.LoadInputImage(cfg.ImagePath)
		if err != nil {
			return nil, err
		}
		req.MainImage = &img
	case cfg.YouTube != "":
		img, err := youtube.NewClient().FetchFromURL(ctx, cfg.YouTube)
		if err != nil {
			return nil, fmt.Errorf("youtube thumbnail: %w", err)
		}
		req.MainImage = &img
	}

	for _, path := range cfg.References {
		img, err := thumbgen.LoadInputImage(path)
		if err != nil {
			return nil, err
		}
		req.ReferenceImages = append(req.ReferenceImages, img)
	}

	return req, nil
}

func runAnalyze(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseAnalyzeFlags(args, stderr)
	if err != nil {
		return usageExit(err, stderr)
	}

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer closeStore()

	img, err := thumbgen.LoadInputImage(cfg.ImagePath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	provider := thumbgen.Provider(cfg.Provider)
	manager := newManager(newLogger(stderr, cfg.Verbose), store, provider)
	defer manager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	suggestions, err := manager.AnalyzeImage(ctx, provider, thumbgen.Credential(cfg.APIKey), img, cfg.Goal)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if thumbgen.IsValidationError(err) || errors.Is(err, thumbgen.ErrAnalysisUnsupported) {
			return exitUsage
		}
		return exitError
	}

	fmt.Fprintln(stdout, suggestions)
	return exitOK
}

func runKey(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseKeyFlags(args, stderr)
	if err != nil {
		return usageExit(err, stderr)
	}

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer closeStore()

	ctx := context.Background()
	provider := thumbgen.Provider(cfg.Provider)

	switch cfg.Action {
	case "set":
		if err := store.Set(ctx, cfg.Provider, cfg.Key); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		fmt.Fprintf(stdout, "%s API key saved\n", provider)

	case "remove":
		if err := store.Remove(ctx, cfg.Provider); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		fmt.Fprintf(stdout, "%s API key removed\n", provider)

	case "show":
		key, err := store.Get(ctx, cfg.Provider)
		if errors.Is(err, keystore.ErrNotFound) {
			fmt.Fprintf(stdout, "no %s API key stored\n", provider)
			return exitOK
		}
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		fmt.Fprintf(stdout, "%s: %s\n", provider, keystore.Mask(key))

	case "check":
		key := cfg.Key
		if key == "" {
			key, err = store.Get(ctx, cfg.Provider)
			if err != nil && !errors.Is(err, keystore.ErrNotFound) {
				fmt.Fprintln(stderr, "error:", err)
				return exitError
			}
		}
		manager := newManager(newLogger(stderr, cfg.Verbose), store, provider)
		defer manager.Close()

		if err := manager.ValidateProviderCredential(ctx, provider, thumbgen.Credential(key)); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		fmt.Fprintf(stdout, "%s API key is valid\n", provider)
	}

	return exitOK
}

func runTemplates(stdout io.Writer) int {
	fmt.Fprintln(stdout, "Prompt templates (-prompt-template):")
	for _, category := range thumbgen.TemplateCategories() {
		fmt.Fprintf(stdout, "\n%s\n", category)
		for _, t := range thumbgen.PromptTemplates {
			if t.Category == category {
				fmt.Fprintf(stdout, "  %s %-16s %s\n", t.Icon, t.ID, t.Name)
			}
		}
	}

	fmt.Fprintln(stdout, "\nStyle templates (-template):")
	for _, t := range thumbgen.StyleTemplates {
		fmt.Fprintf(stdout, "  %s  %-8s %s\n", t.ID, t.Name, t.Path)
	}
	return exitOK
}
