package thumbgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ErrUnknownTemplate is returned when a style template reference does not
// name a bundled template.
var ErrUnknownTemplate = errors.New("unknown style template")

// StyleTemplate is a bundled style image, addressed relative to an asset root.
type StyleTemplate struct {
	ID   string
	Name string
	Path string
}

// StyleTemplates lists the bundled style images.
var StyleTemplates = []StyleTemplate{
	{ID: "1", Name: "Style 1", Path: "/1.jpg"},
	{ID: "2", Name: "Style 2", Path: "/2.jpg"},
	{ID: "3", Name: "Style 3", Path: "/3.jpg"},
}

// FindStyleTemplate returns the bundled template with the given id.
func FindStyleTemplate(id string) (StyleTemplate, bool) {
	for _, t := range StyleTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return StyleTemplate{}, false
}

func templatePath(ref string) (string, error) {
	t, ok := FindStyleTemplate(ref)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, ref)
	}
	return t.Path, nil
}

// HTTPTemplateSource fetches style templates from a web asset root.
type HTTPTemplateSource struct {
	BaseURL string
	Client  *http.Client // nil uses http.DefaultClient
}

// FetchTemplate downloads the template named by ref.
func (s *HTTPTemplateSource) FetchTemplate(ctx context.Context, ref string) (InputImage, error) {
	p, err := templatePath(ref)
	if err != nil {
		return InputImage{}, err
	}
	return FetchRemoteAsBinary(ctx, s.Client, strings.TrimRight(s.BaseURL, "/")+p)
}

// FSTemplateSource reads style templates from a file system, such as
// os.DirFS or an embed.FS.
type FSTemplateSource struct {
	FS fs.FS
}

// FetchTemplate reads the template named by ref.
func (s *FSTemplateSource) FetchTemplate(ctx context.Context, ref string) (InputImage, error) {
	if err := ctx.Err(); err != nil {
		return InputImage{}, err
	}
	p, err := templatePath(ref)
	if err != nil {
		return InputImage{}, err
	}

	name := strings.TrimPrefix(p, "/")
	data, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return InputImage{}, fmt.Errorf("read template %s: %w", ref, err)
	}
	return InputImage{
		Data:     data,
		MIMEType: GetMIMEType(name),
		Name:     path.Base(name),
	}, nil
}

// PromptTemplate is a canned description for a common kind of video.
type PromptTemplate struct {
	ID       string
	Name     string
	Category string
	Icon     string
	Prompt   string
}

// PromptTemplates is the read-only catalog of canned descriptions.
var PromptTemplates = []PromptTemplate{
	{
		ID:       "gaming-reaction",
		Name:     "Gaming Reaction",
		Category: "Gaming",
		Icon:     "🎮",
		Prompt:   "An intense gaming reaction thumbnail with dramatic lighting, surprised/excited facial expression, game footage in background, bold neon colors (pink, blue, green), and large expressive text overlay",
	},
	{
		ID:       "gaming-top10",
		Name:     "Top 10 Games",
		Category: "Gaming",
		Icon:     "🏆",
		Prompt:   "A dynamic top 10 gaming list thumbnail with multiple game screenshots arranged creatively, large bold '10' number, vibrant gradient background, and exciting action-packed composition",
	},
	{
		ID:       "tech-review",
		Name:     "Tech Review",
		Category: "Tech",
		Icon:     "📱",
		Prompt:   "A clean, professional tech review thumbnail featuring the product prominently centered, subtle gradient background, modern minimalist design, comparison arrows or vs icons if comparing products",
	},
	{
		ID:       "tech-unboxing",
		Name:     "Unboxing",
		Category: "Tech",
		Icon:     "📦",
		Prompt:   "An exciting unboxing thumbnail with hands holding/revealing the product, open box visible, dramatic spotlight lighting, amazed expression, sparkle effects around the product",
	},
	{
		ID:       "tutorial-howto",
		Name:     "How To Guide",
		Category: "Tutorial",
		Icon:     "📚",
		Prompt:   "An educational how-to thumbnail with clear step indicators, friendly presenter pointing at key elements, bright and welcoming colors, clean organized layout with numbered steps visible",
	},
	{
		ID:       "tutorial-tips",
		Name:     "Tips & Tricks",
		Category: "Tutorial",
		Icon:     "💡",
		Prompt:   "A helpful tips and tricks thumbnail with lightbulb or brain icon, numbered list preview (3-5 tips), professional presenter, warm inviting colors, and clear readable text",
	},
	{
		ID:       "vlog-travel",
		Name:     "Travel Vlog",
		Category: "Vlog",
		Icon:     "✈️",
		Prompt:   "A stunning travel vlog thumbnail featuring a beautiful destination landscape, traveler in frame looking amazed, warm sunset colors, location name overlay, adventure and wanderlust vibes",
	},
	{
		ID:       "vlog-day",
		Name:     "Day in Life",
		Category: "Vlog",
		Icon:     "☀️",
		Prompt:   "A lifestyle day-in-the-life thumbnail with multiple scene snapshots, cozy aesthetic, warm natural lighting, casual authentic feel, soft pastel or earth tone colors",
	},
	{
		ID:       "reaction-video",
		Name:     "Reaction Video",
		Category: "Entertainment",
		Icon:     "😱",
		Prompt:   "An exaggerated reaction thumbnail with shocked/surprised facial expression, mouth open wide, hands on face, split screen with content being reacted to, bright contrasting colors",
	},
	{
		ID:       "challenge-video",
		Name:     "Challenge",
		Category: "Entertainment",
		Icon:     "🔥",
		Prompt:   "An exciting challenge video thumbnail with dynamic action pose, bold challenge name text, fire or explosion effects, energetic bright colors, competitive intense mood",
	},
	{
		ID:       "money-tips",
		Name:     "Money Tips",
		Category: "Business",
		Icon:     "💰",
		Prompt:   "A professional finance thumbnail with money/dollar imagery, upward trending graphs, confident presenter in business casual, green and gold color scheme, trust-building clean design",
	},
	{
		ID:       "productivity",
		Name:     "Productivity",
		Category: "Business",
		Icon:     "⚡",
		Prompt:   "A motivational productivity thumbnail with organized workspace, to-do list visuals, clock or timer elements, energetic presenter, clean modern aesthetic with blue and white tones",
	},
}

// TemplateCategories returns the distinct categories in catalog order.
func TemplateCategories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, t := range PromptTemplates {
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	return categories
}

// FindPromptTemplate returns the catalog entry with the given id.
func FindPromptTemplate(id string) (PromptTemplate, bool) {
	for _, t := range PromptTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return PromptTemplate{}, false
}
