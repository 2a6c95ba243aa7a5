package thumbgen

// SafetyCategory represents a content safety category.
type SafetyCategory string

const (
	SafetyCategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	SafetyCategoryHateSpeech       SafetyCategory = "HARM_CATEGORY_HATE_SPEECH"
	SafetyCategorySexuallyExplicit SafetyCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	SafetyCategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// SafetyThreshold represents the blocking threshold for safety filters.
type SafetyThreshold string

const (
	SafetyThresholdBlockNone      SafetyThreshold = "BLOCK_NONE"
	SafetyThresholdBlockLowAndUp  SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyThresholdBlockMedAndUp  SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThresholdBlockHighAndUp SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// SafetySetting configures content filtering for a specific category.
type SafetySetting struct {
	Category  SafetyCategory
	Threshold SafetyThreshold
}

// EncodedImage is the transport form of an image: base64 text plus its
// media type.
type EncodedImage struct {
	// Data is the standard base64 encoding of the image bytes
	Data string

	// MIMEType of the encoded bytes
	MIMEType string
}

// AttachmentRole describes what an attachment is for in the prompt.
type AttachmentRole string

const (
	RoleMain      AttachmentRole = "main"
	RoleTemplate  AttachmentRole = "template"
	RoleReference AttachmentRole = "reference"
)

// Attachment is one encoded image sent alongside the prompt text.
type Attachment struct {
	EncodedImage
	Role AttachmentRole
}

// GeneratedImage is the result of one successful generation attempt.
// It is immutable once emitted.
type GeneratedImage struct {
	// ID is unique within a run: generated-{unixMillis}-{attempt}
	ID string

	// RunID tags the orchestration run that produced the image
	RunID string

	// Data contains the base64 encoded image bytes
	Data string

	// MIMEType of the generated image
	MIMEType string

	// Attempt is the attempt index in [0, count)
	Attempt int

	// Description is the (possibly style-varied) description used for the attempt
	Description string
}

// Encoded returns the transport form of the image.
func (g GeneratedImage) Encoded() EncodedImage {
	return EncodedImage{Data: g.Data, MIMEType: g.MIMEType}
}
