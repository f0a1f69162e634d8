package conversation

import (
	"context"
	"time"
)

// MessageRequest is one free-text turn sent to the assistant backend.
type MessageRequest struct {
	SessionID      string `json:"sessionId"`
	Text           string `json:"message"`
	Language       string `json:"language"`
	IntentOverride string `json:"intentOverride,omitempty"`
}

// MessageReply is the assistant backend's answer to a MessageRequest.
type MessageReply struct {
	Response           string       `json:"response"`
	Mode               Mode         `json:"mode,omitempty"`
	MissingFields      []string     `json:"missingFields,omitempty"`
	TemplatePath       string       `json:"templatePath,omitempty"`
	TemplateTitle      string       `json:"templateTitle,omitempty"`
	SuggestedActions   []Affordance `json:"suggestedActions,omitempty"`
	RemainingMessages  *int         `json:"remainingMessages,omitempty"`
	SubscriptionStatus string       `json:"subscriptionStatus,omitempty"`
}

// Messenger talks to the backend intent/response service.
type Messenger interface {
	SendMessage(ctx context.Context, req MessageRequest) (MessageReply, error)
	// ExitDocumentMode clears any server-held drafting state for the session.
	ExitDocumentMode(ctx context.Context, sessionID string) error
}

// SchemaSource fetches the authoritative field schema for a template.
type SchemaSource interface {
	TemplateSchema(ctx context.Context, templatePath string) (TemplateSchema, error)
}

// DesignSource lists the styling options for a category.
type DesignSource interface {
	Designs(ctx context.Context, category string) ([]Design, error)
}

type GenerateRequest struct {
	SessionID    string            `json:"sessionId"`
	TemplatePath string            `json:"templatePath"`
	FieldValues  map[string]string `json:"fieldValues"`
	Language     string            `json:"language"`
	DesignConfig map[string]any    `json:"designConfig,omitempty"`
}

type ComplaintRequest struct {
	SessionID     string            `json:"sessionId"`
	ComplaintData map[string]string `json:"complaintData"`
	Language      string            `json:"language"`
	DesignConfig  map[string]any    `json:"designConfig,omitempty"`
}

type GenerateResult struct {
	Message  string         `json:"message"`
	FileURL  string         `json:"file,omitempty"`
	Document map[string]any `json:"document,omitempty"`
}

// Generator renders documents.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	GenerateComplaint(ctx context.Context, req ComplaintRequest) (GenerateResult, error)
}

// FileAnalyzer turns an uploaded file into analysis text.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, file FileRef, language string) (string, error)
}

// Feedback is a rating of a generated document.
type Feedback struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	DocumentID   string    `json:"documentId"`
	TemplatePath string    `json:"templatePath"`
	Positive     bool      `json:"positive"`
	CreatedAt    time.Time `json:"createdAt"`
}

type FeedbackSink interface {
	SubmitFeedback(ctx context.Context, fb Feedback) error
}

// DocumentRecorder keeps the history of generated documents.
type DocumentRecorder interface {
	Record(ctx context.Context, userID string, doc GeneratedDocument) error
}

// UsageReport mirrors the quota information returned with each reply.
type UsageReport struct {
	Remaining          *int
	SubscriptionStatus string
	Exhausted          bool
}

type UsageRecorder interface {
	Record(ctx context.Context, userID string, report UsageReport) error
}

// LanguageSource resolves the preferred language of a user.
type LanguageSource interface {
	Language(ctx context.Context, userID string) string
}

// Catalog provides localized user-facing text.
type Catalog interface {
	Text(lang, key string) string
}

// Deps bundles the collaborators of a conversation. Documents, Usage, Feedback
// and Analyzer are optional.
type Deps struct {
	Messenger Messenger
	Schemas   SchemaSource
	Designs   DesignSource
	Generator Generator
	Analyzer  FileAnalyzer
	Feedback  FeedbackSink
	Documents DocumentRecorder
	Usage     UsageRecorder
	Catalog   Catalog

	Now   func() time.Time
	NewID func() string

	// FeedbackTimeout bounds the fire-and-forget feedback submission.
	FeedbackTimeout time.Duration
}
