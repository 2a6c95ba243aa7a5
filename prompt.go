package thumbgen

import (
	"fmt"
	"strings"
)

// PromptLayout describes which images accompany a prompt.
type PromptLayout struct {
	HasMain        bool
	HasTemplate    bool
	ReferenceCount int
}

// ImageCount returns the number of attachments the layout describes.
func (l PromptLayout) ImageCount() int {
	n := l.ReferenceCount
	if l.HasMain {
		n++
	}
	if l.HasTemplate {
		n++
	}
	return n
}

const promptPreamble = `Create a professional, eye-catching YouTube thumbnail. %s.
The image should be vibrant, high-contrast, and optimized for click-through rate.
Use bold colors and clear visual hierarchy. Aspect ratio should be 16:9.`

// BuildPrompt returns the instruction text for one generation request.
// Attachments are enumerated main, template, references; the request must
// carry its images in that same order (see AttachmentOrder).
func BuildPrompt(description string, layout PromptLayout) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptPreamble, strings.TrimSpace(description))

	if layout.ImageCount() == 0 {
		return b.String()
	}

	b.WriteString("\n\nThe attached images are provided in this order:")
	pos := 1
	if layout.HasMain {
		fmt.Fprintf(&b, "\n- Image %d is the main subject. Feature it prominently and keep it recognizable.", pos)
		pos++
	}
	if layout.HasTemplate {
		fmt.Fprintf(&b, "\n- Image %d is a style template. Match its layout, colors and typography, not its content.", pos)
		pos++
	}
	switch n := layout.ReferenceCount; {
	case n == 1:
		fmt.Fprintf(&b, "\n- Image %d is a reference image for style inspiration.", pos)
	case n > 1:
		fmt.Fprintf(&b, "\n- Images %d-%d are reference images for style inspiration.", pos, pos+n-1)
	}

	return b.String()
}

const analysisPreamble = "Analyze this image for YouTube thumbnail potential. " +
	"Provide 3 specific suggestions for how to make it more clickable and engaging."

// AnalysisPrompt returns the instruction sent with an image to review. goal is
// what the user wants the thumbnail to achieve and may be empty.
func AnalysisPrompt(goal string) string {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return analysisPreamble
	}
	return analysisPreamble + " User's goal: " + goal
}

// AttachmentOrder assembles the attachment list in prompt order and returns
// the layout that describes it.
func AttachmentOrder(main, template *EncodedImage, references []EncodedImage) ([]Attachment, PromptLayout) {
	attachments := make([]Attachment, 0, len(references)+2)
	var layout PromptLayout

	if main != nil {
		attachments = append(attachments, Attachment{EncodedImage: *main, Role: RoleMain})
		layout.HasMain = true
	}
	if template != nil {
		attachments = append(attachments, Attachment{EncodedImage: *template, Role: RoleTemplate})
		layout.HasTemplate = true
	}
	for _, ref := range references {
		attachments = append(attachments, Attachment{EncodedImage: ref, Role: RoleReference})
	}
	layout.ReferenceCount = len(references)

	return attachments, layout
}

// PromptVariation rewrites the description for a given attempt.
type PromptVariation interface {
	Vary(description string, attempt int) string
}

// NoVariation sends the same description on every attempt.
type NoVariation struct{}

func (NoVariation) Vary(description string, _ int) string {
	return description
}

// DefaultStyles are the style descriptors cycled by StyleRotation.
var DefaultStyles = []string{
	"cinematic dramatic lighting with lens flare and depth of field",
	"bold graphic design with high saturation and strong shadows",
	"professional studio lighting with clean background",
	"dynamic action shot with motion blur and energy",
	"vibrant pop art style with bold colors and contrast",
	"neon cyberpunk aesthetic with glowing elements",
	"warm golden hour lighting with natural tones",
	"high-key bright and airy professional style",
}

// StyleRotation gives attempt i the style Styles[i % len(Styles)].
type StyleRotation struct {
	Styles []string
}

// NewStyleRotation returns a StyleRotation over DefaultStyles.
func NewStyleRotation() *StyleRotation {
	return &StyleRotation{Styles: DefaultStyles}
}

// Style returns the descriptor used for attempt.
func (r *StyleRotation) Style(attempt int) string {
	if len(r.Styles) == 0 || attempt < 0 {
		return ""
	}
	return r.Styles[attempt%len(r.Styles)]
}

func (r *StyleRotation) Vary(description string, attempt int) string {
	style := r.Style(attempt)
	if style == "" {
		return description
	}
	return strings.TrimSpace(description) + ". Style: " + style
}
