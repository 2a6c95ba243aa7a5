package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mhpenta/thumbgen"
)

// storeConfig selects where API keys live.
type storeConfig struct {
	Kind      string `flag:"keystore" validate:"required,oneof=file redis"`
	File      string `flag:"key-file" validate:"required_if=Kind file"`
	RedisAddr string `flag:"redis-addr" validate:"required_if=Kind redis"`
	RedisDB   int    `flag:"redis-db" validate:"gte=0"`
}

// generateConfig holds the generate command's flags resolved with env.
type generateConfig struct {
	Description    string   `flag:"d" validate:"required_without=PromptTemplate"`
	PromptTemplate string   `flag:"prompt-template"`
	ImagePath      string   `flag:"image" validate:"omitempty,file,excluded_with=YouTube"`
	YouTube        string   `flag:"youtube"`
	References     []string `flag:"ref" validate:"max=12,dive,file"`
	Template       string   `flag:"template" validate:"omitempty,oneof=1 2 3"`
	TemplateDir    string   `flag:"template-dir" validate:"omitempty,dir"`
	TemplateURL    string   `flag:"template-url" validate:"omitempty,url"`
	Count          int      `flag:"n" validate:"gte=0"`
	OutDir         string   `flag:"out" validate:"required"`
	Provider       string   `flag:"provider" validate:"required,oneof=gemini openai"`
	Model          string   `flag:"model"`
	APIKey         string   `flag:"api-key"`
	Timeout        time.Duration
	Verbose        bool

	Store storeConfig
}

// analyzeConfig holds the analyze command's flags.
type analyzeConfig struct {
	ImagePath string `flag:"image" validate:"required,file"`
	Goal      string `flag:"d"`
	Provider  string `flag:"provider" validate:"required,oneof=gemini openai"`
	APIKey    string `flag:"api-key"`
	Timeout   time.Duration
	Verbose   bool

	Store storeConfig
}

// keyConfig holds the key command's flags.
type keyConfig struct {
	Action   string `flag:"action" validate:"required,oneof=set remove show check"`
	Provider string `flag:"provider" validate:"required,oneof=gemini openai"`
	Key      string `flag:"key" validate:"required_if=Action set"`
	Verbose  bool

	Store storeConfig
}

// stringSliceFlag implements flag.Value to collect repeatable string flags into a slice.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// apiKeyFromEnv returns the provider key from PROVIDER_API_KEY, e.g. GEMINI_API_KEY.
func apiKeyFromEnv(provider string) string {
	return strings.TrimSpace(os.Getenv(strings.ToUpper(provider) + "_API_KEY"))
}

func defaultKeyFile() string {
	if path := os.Getenv("THUMBGEN_KEY_FILE"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".thumbgen-keys.json"
	}
	return dir + string(os.PathSeparator) + "thumbgen" + string(os.PathSeparator) + "keys.json"
}

func bindStoreFlags(fs *flag.FlagSet, cfg *storeConfig) {
	fs.StringVar(&cfg.Kind, "keystore", getEnv("THUMBGEN_KEYSTORE", "file"), "where API keys are stored: file or redis (env THUMBGEN_KEYSTORE)")
	fs.StringVar(&cfg.File, "key-file", defaultKeyFile(), "key file for -keystore=file (env THUMBGEN_KEY_FILE)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("THUMBGEN_REDIS_ADDR", ""), "redis address for -keystore=redis (env THUMBGEN_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("THUMBGEN_REDIS_DB", 0), "redis database (env THUMBGEN_REDIS_DB)")
}

func parseGenerateFlags(args []string, stderr io.Writer) (generateConfig, error) {
	var cfg generateConfig
	var refs stringSliceFlag

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Description, "d", "", "description of the thumbnail")
	fs.StringVar(&cfg.PromptTemplate, "prompt-template", "", "start from a catalog prompt (see 'thumbgen templates')")
	fs.StringVar(&cfg.ImagePath, "image", "", "main subject image file")
	fs.StringVar(&cfg.YouTube, "youtube", "", "use a YouTube video's thumbnail as the main image")
	fs.Var(&refs, "ref", "reference image file (repeatable)")
	fs.StringVar(&cfg.Template, "template", "", "style template id: 1, 2 or 3; needs -template-dir or -template-url")
	fs.StringVar(&cfg.TemplateDir, "template-dir", getEnv("THUMBGEN_TEMPLATE_DIR", ""), "directory holding style templates (env THUMBGEN_TEMPLATE_DIR)")
	fs.StringVar(&cfg.TemplateURL, "template-url", getEnv("THUMBGEN_TEMPLATE_URL", ""), "base URL serving style templates (env THUMBGEN_TEMPLATE_URL)")
	fs.IntVar(&cfg.Count, "n", thumbgen.DefaultCount, "number of variants to generate (max 10)")
	fs.StringVar(&cfg.OutDir, "out", getEnv("THUMBGEN_OUT", "."), "output directory (env THUMBGEN_OUT)")
	fs.StringVar(&cfg.Provider, "provider", getEnv("THUMBGEN_PROVIDER", "gemini"), "image provider: gemini or openai (env THUMBGEN_PROVIDER)")
	fs.StringVar(&cfg.Model, "model", getEnv("THUMBGEN_MODEL", ""), "model name; empty uses the provider default (env THUMBGEN_MODEL)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key for this run; defaults to GEMINI_API_KEY/OPENAI_API_KEY, then the key store")
	fs.DurationVar(&cfg.Timeout, "timeout", 5*time.Minute, "overall timeout")
	fs.BoolVar(&cfg.Verbose, "v", false, "debug logging")
	bindStoreFlags(fs, &cfg.Store)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.References = refs

	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	}
	if cfg.Description == "" && fs.NArg() > 0 {
		cfg.Description = strings.Join(fs.Args(), " ")
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	if cfg.PromptTemplate != "" {
		if _, ok := thumbgen.FindPromptTemplate(cfg.PromptTemplate); !ok {
			return cfg, fmt.Errorf("invalid -prompt-template: unknown template %q", cfg.PromptTemplate)
		}
	}
	return cfg, nil
}

func parseAnalyzeFlags(args []string, stderr io.Writer) (analyzeConfig, error) {
	var cfg analyzeConfig

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.ImagePath, "image", "", "image to review")
	fs.StringVar(&cfg.Goal, "d", "", "what the thumbnail should achieve")
	fs.StringVar(&cfg.Provider, "provider", getEnv("THUMBGEN_ANALYZE_PROVIDER", "openai"), "provider that reviews the image (env THUMBGEN_ANALYZE_PROVIDER)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key for this run; defaults to OPENAI_API_KEY, then the key store")
	fs.DurationVar(&cfg.Timeout, "timeout", time.Minute, "overall timeout")
	fs.BoolVar(&cfg.Verbose, "v", false, "debug logging")
	bindStoreFlags(fs, &cfg.Store)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	}
	if cfg.Goal == "" && fs.NArg() > 0 {
		cfg.Goal = strings.Join(fs.Args(), " ")
	}

	return cfg, validateConfig(cfg)
}

// parseKeyFlags parses "key <action> [-provider p] [key]".
func parseKeyFlags(args []string, stderr io.Writer) (keyConfig, error) {
	var cfg keyConfig
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cfg.Action = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("key", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Provider, "provider", getEnv("THUMBGEN_PROVIDER", "gemini"), "provider the key belongs to (env THUMBGEN_PROVIDER)")
	fs.BoolVar(&cfg.Verbose, "v", false, "debug logging")
	bindStoreFlags(fs, &cfg.Store)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		cfg.Key = fs.Arg(0)
	}

	return cfg, validateConfig(cfg)
}

// description combines the catalog prompt and the user's own text.
func (c generateConfig) description() string {
	desc := strings.TrimSpace(c.Description)
	tmpl, ok := thumbgen.FindPromptTemplate(c.PromptTemplate)
	if !ok {
		return desc
	}
	if desc == "" {
		return tmpl.Prompt
	}
	return tmpl.Prompt + ". " + desc
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return name
		}
		return f.Name
	})
	v.RegisterStructValidation(templateSourceRule, generateConfig{})
	return v
}

// templateSourceRule rejects a style template with nowhere to load it from.
func templateSourceRule(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(generateConfig)
	if cfg.Template != "" && cfg.TemplateDir == "" && cfg.TemplateURL == "" {
		sl.ReportError(cfg.TemplateDir, "template-dir", "TemplateDir", "template_source", "")
	}
}

// validateConfig reports the first invalid flag by its command-line name.
func validateConfig(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Errorf("missing -%s", fe.Field())
	case "oneof":
		return fmt.Errorf("invalid -%s %q: must be one of %s", fe.Field(), fe.Value(), fe.Param())
	case "file", "dir":
		return fmt.Errorf("invalid -%s %q: no such %s", fe.Field(), fe.Value(), fe.Tag())
	case "template_source":
		return errors.New("-template needs -template-dir or -template-url")
	case "excluded_with":
		return fmt.Errorf("-%s cannot be combined with -%s", fe.Field(), strings.ToLower(fe.Param()))
	default:
		return fmt.Errorf("invalid -%s: failed %s", fe.Field(), fe.Tag())
	}
}
