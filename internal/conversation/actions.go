package conversation

import "strings"

// Action identifiers understood by the dispatcher. Anything else coming from
// the backend is forwarded as a Suggestion.
const (
	ActionCreateDocument   = "CREATE_DOCUMENT"
	ActionBrowseTemplates  = "BROWSE_TEMPLATES"
	ActionSelectTemplate   = "SELECT_TEMPLATE:"
	ActionFileComplaint    = "FILE_COMPLAINT"
	ActionResumeDraft      = "RESUME_DRAFT"
	ActionDiscardDraft     = "DISCARD_DRAFT"
	ActionEditDocument     = "EDIT_DOCUMENT"
	ActionExitDocumentMode = "EXIT_DOCUMENT_MODE"
	ActionNewDocument      = "NEW_DOCUMENT"
	ActionRatePositive     = "RATE_POSITIVE"
	ActionRateNegative     = "RATE_NEGATIVE"
)

const (
	affordanceKindTemplate = "template"
	affordanceKindReply    = "reply"
	affordanceKindAction   = "action"

	complaintTemplatePath = "complaint"
	complaintCategory     = "complaint"
	fallbackDesignID      = "standard"

	intentCreateDocument  = "create_document"
	intentBrowseTemplates = "browse_templates"
)

// Action is the closed set of orchestration routines an affordance resolves to.
//
//sumtype:decl
type Action interface {
	isAction()
}

type (
	SendText         struct{ Text string }
	CreateDocument   struct{ Label string }
	BrowseTemplates  struct{ Label string }
	SelectTemplate   struct{ Path, Title string }
	StartComplaint   struct{}
	ResumeDraft      struct{}
	DiscardDraft     struct{}
	EditDocument     struct{}
	ExitDocumentMode struct{}
	NewDocument      struct{}
	Rate             struct{ Positive bool }
	Suggestion       struct{ ActionID, Label string }
)

func (SendText) isAction()         {}
func (CreateDocument) isAction()   {}
func (BrowseTemplates) isAction()  {}
func (SelectTemplate) isAction()   {}
func (StartComplaint) isAction()   {}
func (ResumeDraft) isAction()      {}
func (DiscardDraft) isAction()     {}
func (EditDocument) isAction()     {}
func (ExitDocumentMode) isAction() {}
func (NewDocument) isAction()      {}
func (Rate) isAction()             {}
func (Suggestion) isAction()       {}

// ParseAction resolves an affordance to exactly one Action.
func ParseAction(aff Affordance) Action {
	id := strings.TrimSpace(aff.ActionID)
	switch id {
	case ActionCreateDocument:
		return CreateDocument{Label: aff.Label}
	case ActionBrowseTemplates:
		return BrowseTemplates{Label: aff.Label}
	case ActionFileComplaint:
		return StartComplaint{}
	case ActionResumeDraft:
		return ResumeDraft{}
	case ActionDiscardDraft:
		return DiscardDraft{}
	case ActionEditDocument:
		return EditDocument{}
	case ActionExitDocumentMode:
		return ExitDocumentMode{}
	case ActionNewDocument:
		return NewDocument{}
	case ActionRatePositive:
		return Rate{Positive: true}
	case ActionRateNegative:
		return Rate{Positive: false}
	}
	if path, ok := strings.CutPrefix(id, ActionSelectTemplate); ok && path != "" {
		return SelectTemplate{Path: path, Title: aff.Label}
	}
	switch aff.Kind {
	case affordanceKindTemplate:
		return SelectTemplate{Path: id, Title: aff.Label}
	case affordanceKindReply:
		return SendText{Text: aff.Label}
	}
	return Suggestion{ActionID: id, Label: aff.Label}
}

func actionName(a Action) string {
	switch a.(type) {
	case SendText:
		return "send_text"
	case CreateDocument:
		return "create_document"
	case BrowseTemplates:
		return "browse_templates"
	case SelectTemplate:
		return "select_template"
	case StartComplaint:
		return "start_complaint"
	case ResumeDraft:
		return "resume_draft"
	case DiscardDraft:
		return "discard_draft"
	case EditDocument:
		return "edit_document"
	case ExitDocumentMode:
		return "exit_document_mode"
	case NewDocument:
		return "new_document"
	case Rate:
		return "rate"
	case Suggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}
