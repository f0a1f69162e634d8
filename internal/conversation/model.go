package conversation

import "time"

// Speaker identifies who authored a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Mode is the conversation mode reported by the message collaborator.
type Mode string

const (
	ModeAutoDetect            Mode = "auto_detect"
	ModeWaitingForDetails     Mode = "waiting_for_details"
	ModeAwaitingChoice        Mode = "awaiting_choice"
	ModeTemplateSelection     Mode = "template_selection"
	ModeDocumentTypeSelection Mode = "document_type_selection"
	ModeConfirmGeneration     Mode = "confirm_generation"
	ModeDocumentReady         Mode = "document_ready"
)

// awaitsChoice reports whether free text must stay disabled until the user
// picks one of the offered affordances.
func (m Mode) awaitsChoice() bool {
	switch m {
	case ModeAwaitingChoice, ModeTemplateSelection, ModeDocumentTypeSelection, ModeConfirmGeneration:
		return true
	default:
		return false
	}
}

// Affordance is a clickable suggested action attached to an assistant turn.
type Affordance struct {
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	ActionID    string `json:"actionId"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"isActive"`
}

// FileRef points at an uploaded attachment.
type FileRef struct {
	StorageKey string `json:"storageKey"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// Turn is one entry of the transcript. Turns are append-only; only their
// affordances change after they are appended.
type Turn struct {
	ID          string             `json:"id"`
	Speaker     Speaker            `json:"speaker"`
	Content     string             `json:"content"`
	Mode        Mode               `json:"mode,omitempty"`
	Affordances []Affordance       `json:"suggestedActions,omitempty"`
	Attachment  *FileRef           `json:"attachedFile,omitempty"`
	Document    *GeneratedDocument `json:"document,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// FieldSpec describes one input of a template form.
type FieldSpec struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Example  string   `json:"example,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// TemplateSchema is the authoritative field list of a template.
type TemplateSchema struct {
	TemplatePath string      `json:"templatePath"`
	DisplayTitle string      `json:"displayTitle"`
	Fields       []FieldSpec `json:"fields"`
}

// DraftKind distinguishes template forms from the complaint form.
type DraftKind string

const (
	DraftForm      DraftKind = "form"
	DraftComplaint DraftKind = "complaint"
)

// DraftSession is the live state of one field form.
type DraftSession struct {
	Kind          DraftKind
	TemplatePath  string
	TemplateTitle string
	Category      string
	Schema        TemplateSchema
	Values        map[string]string
	Touched       map[string]bool
	Errors        map[string]string
	EditMode      bool
}

// RecoverySnapshot keeps the partial values of a neutrally closed first-fill form.
type RecoverySnapshot struct {
	Kind          DraftKind
	TemplatePath  string
	TemplateTitle string
	Category      string
	Fields        []FieldSpec
	PartialValues map[string]string
	TurnID        string
}

// GenerationRequest lives between entering the design step and generation.
type GenerationRequest struct {
	Kind          DraftKind
	TemplatePath  string
	TemplateTitle string
	Category      string
	Payload       map[string]string
	Schema        TemplateSchema
}

// Design is one styling option offered before generation.
type Design struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	IsDefault bool           `json:"isDefault"`
	Config    map[string]any `json:"config,omitempty"`
}

// GeneratedDocument is the "last generated" context used by edit and rating.
type GeneratedDocument struct {
	ID           string            `json:"id"`
	Kind         DraftKind         `json:"kind"`
	TemplatePath string            `json:"templatePath"`
	Title        string            `json:"title"`
	Message      string            `json:"message,omitempty"`
	FileURL      string            `json:"fileUrl,omitempty"`
	DocumentRef  map[string]any    `json:"document,omitempty"`
	Values       map[string]string `json:"values,omitempty"`
	Schema       TemplateSchema    `json:"-"`
	Category     string            `json:"category,omitempty"`
	DesignID     string            `json:"designId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Surface is the UI surface that currently owns user input.
type Surface string

const (
	SurfaceChat         Surface = "chat"
	SurfaceFieldForm    Surface = "field_form"
	SurfaceDesignPicker Surface = "design_picker"
)

// NoticeLevel grades a transient notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient toast shown to the user.
type Notice struct {
	Code    string      `json:"code"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// OutcomeStatus summarizes what an operation did.
type OutcomeStatus string

const (
	StatusApplied  OutcomeStatus = "applied"
	StatusRejected OutcomeStatus = "rejected"
	StatusFailed   OutcomeStatus = "failed"
)

// Outcome is returned by every conversation operation. Collaborator failures
// are reported here rather than as errors.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Notice *Notice       `json:"notice,omitempty"`
}

// Utterance is incremental speech-to-text output.
type Utterance struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}
