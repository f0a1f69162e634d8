package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legalassist-backend/internal/shared/metrics"
	"legalassist-backend/internal/shared/telemetry"
)

// SendMessage sends free text typed by the user.
func (c *Conversation) SendMessage(ctx context.Context, text string) (Outcome, error) {
	return c.send(ctx, text, "")
}

func (c *Conversation) send(ctx context.Context, text, intent string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	c.mu.Lock()
	if code := c.composeBlocked(); code != "" {
		out := c.rejected(code)
		c.mu.Unlock()
		return out, nil
	}
	// The intent to move forward invalidates earlier choices, whatever the
	// outcome of the call.
	c.deactivateAll()
	c.appendUserTurn(text, nil)
	c.st.sending = true
	c.st.composer = ""
	req := MessageRequest{
		SessionID:      c.st.id,
		Text:           text,
		Language:       c.st.language,
		IntentOverride: intent,
	}
	userID := c.st.userID
	c.mu.Unlock()

	reply, err := c.deps.Messenger.SendMessage(ctx, req)

	c.mu.Lock()
	c.st.sending = false
	if err != nil {
		quota := errors.Is(err, ErrQuotaExhausted)
		code := "network_error"
		if quota {
			code = "quota_exhausted"
		}
		out := Outcome{Status: StatusFailed, Notice: c.notice(code, NoticeError)}
		fields := c.logFields(map[string]any{"err": err.Error(), "quota": quota})
		c.mu.Unlock()

		telemetry.Error("conversation.send_failed", fields)
		if quota {
			c.recordUsage(ctx, userID, UsageReport{Exhausted: true})
		}
		return out, nil
	}

	if reply.Mode != "" {
		c.st.mode = reply.Mode
	}
	affs := activate(reply.SuggestedActions)
	c.appendTurn(Turn{
		Speaker:     SpeakerAssistant,
		Content:     reply.Response,
		Mode:        reply.Mode,
		Affordances: affs,
	})
	c.st.pendingChoice = reply.Mode.awaitsChoice() && len(affs) > 0
	openForm := reply.Mode == ModeWaitingForDetails && strings.TrimSpace(reply.TemplatePath) != ""
	telemetry.Info("conversation.reply", c.logFields(map[string]any{
		"mode":           string(reply.Mode),
		"pending_choice": c.st.pendingChoice,
		"affordances":    len(affs),
	}))
	c.mu.Unlock()

	c.recordUsage(ctx, userID, UsageReport{
		Remaining:          reply.RemainingMessages,
		SubscriptionStatus: reply.SubscriptionStatus,
		Exhausted:          reply.RemainingMessages != nil && *reply.RemainingMessages <= 0,
	})

	if openForm {
		return c.OpenForm(ctx, FormRequest{
			Kind:         DraftForm,
			TemplatePath: reply.TemplatePath,
			Title:        reply.TemplateTitle,
			KnownFields:  reply.MissingFields,
		})
	}
	return Outcome{Status: StatusApplied}, nil
}

// composeBlocked returns the notice code that keeps the user from starting a
// new request, or "" when free input is accepted.
func (c *Conversation) composeBlocked() string {
	switch {
	case c.st.sending || c.st.analyzing || c.st.opening:
		return "please_wait"
	case c.st.pendingChoice:
		return "choice_pending"
	case c.st.surface != SurfaceChat:
		return "surface_open"
	}
	return ""
}

// AcceptsInput reports whether a new chat request would be accepted now. When
// it would not, the returned outcome carries the blocking notice.
func (c *Conversation) AcceptsInput() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code := c.composeBlocked(); code != "" {
		return c.rejected(code), false
	}
	return Outcome{Status: StatusApplied}, true
}

func (c *Conversation) recordUsage(ctx context.Context, userID string, report UsageReport) {
	if c.deps.Usage == nil {
		return
	}
	if report.Remaining == nil && report.SubscriptionStatus == "" && !report.Exhausted {
		return
	}
	if err := c.deps.Usage.Record(ctx, userID, report); err != nil {
		telemetry.Error("conversation.usage_record_failed", map[string]any{
			"user_id": userID,
			"err":     err.Error(),
		})
	}
}

// Click runs the affordance actionID of turn turnID. Only active affordances
// can be clicked; anything else returns ErrStaleAffordance without side
// effects.
func (c *Conversation) Click(ctx context.Context, turnID, actionID string) (Outcome, error) {
	c.mu.Lock()
	aff, ok := c.findActive(turnID, actionID)
	if !ok {
		c.mu.Unlock()
		return Outcome{}, ErrStaleAffordance
	}
	if c.st.surface != SurfaceChat {
		out := c.rejected("surface_open")
		c.mu.Unlock()
		return out, nil
	}
	c.st.pendingChoice = false
	c.deactivateAll()
	action := ParseAction(aff)
	telemetry.Info("conversation.action", c.logFields(map[string]any{
		"action":    actionName(action),
		"action_id": actionID,
	}))
	c.mu.Unlock()

	metrics.IncAction(actionName(action))
	return c.dispatch(ctx, action)
}

func (c *Conversation) dispatch(ctx context.Context, action Action) (Outcome, error) {
	switch a := action.(type) {
	case SendText:
		return c.send(ctx, a.Text, "")
	case CreateDocument:
		return c.send(ctx, labelOr(a.Label, c.textLocked("action.create_document")), intentCreateDocument)
	case BrowseTemplates:
		return c.send(ctx, labelOr(a.Label, c.textLocked("action.browse_templates")), intentBrowseTemplates)
	case SelectTemplate:
		return c.OpenForm(ctx, FormRequest{Kind: DraftForm, TemplatePath: a.Path, Title: a.Title})
	case StartComplaint:
		return c.openComplaint(ctx, nil, false)
	case ResumeDraft:
		return c.ResumeDraft(ctx)
	case DiscardDraft:
		return c.DiscardDraft(ctx)
	case EditDocument:
		return c.editDocument(ctx)
	case ExitDocumentMode:
		return c.exitDocumentMode(ctx)
	case NewDocument:
		return c.newDocument(ctx)
	case Rate:
		return c.rate(ctx, a.Positive)
	case Suggestion:
		return c.send(ctx, labelOr(a.Label, a.ActionID), a.ActionID)
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported action %T", ErrInvalidInput, action)
	}
}

func (c *Conversation) textLocked(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text(key)
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return fallback
}

// AnalyzeFile appends the uploaded file to the transcript and asks the file
// collaborator to analyze it.
func (c *Conversation) AnalyzeFile(ctx context.Context, file FileRef) (Outcome, error) {
	if strings.TrimSpace(file.StorageKey) == "" {
		return Outcome{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	c.mu.Lock()
	if code := c.composeBlocked(); code != "" {
		out := c.rejected(code)
		c.mu.Unlock()
		return out, nil
	}
	if c.deps.Analyzer == nil {
		out := Outcome{Status: StatusFailed, Notice: c.notice("file_analysis_failed", NoticeError)}
		c.mu.Unlock()
		return out, nil
	}
	c.deactivateAll()
	f := file
	c.appendUserTurn(file.FileName, &f)
	c.st.analyzing = true
	lang := c.st.language
	c.mu.Unlock()

	text, err := c.deps.Analyzer.AnalyzeFile(ctx, file, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.analyzing = false
	if err != nil {
		telemetry.Error("conversation.file_analysis_failed", c.logFields(map[string]any{
			"file_name": file.FileName,
			"err":       err.Error(),
		}))
		if errors.Is(err, ErrQuotaExhausted) {
			return Outcome{Status: StatusFailed, Notice: c.notice("quota_exhausted", NoticeError)}, nil
		}
		return Outcome{Status: StatusFailed, Notice: c.notice("file_analysis_failed", NoticeError)}, nil
	}
	c.appendAssistantTurn(text, nil)
	return Outcome{Status: StatusApplied}, nil
}

// Dictate consumes incremental speech-to-text output. Partial utterances
// replace the composer text; a final utterance sends it.
func (c *Conversation) Dictate(ctx context.Context, u Utterance) (Outcome, error) {
	c.mu.Lock()
	if c.st.surface != SurfaceChat {
		out := c.rejected("surface_open")
		c.mu.Unlock()
		return out, nil
	}
	c.st.composer = u.Text
	text := c.st.composer
	c.mu.Unlock()

	if !u.Final {
		return Outcome{Status: StatusApplied}, nil
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{Status: StatusRejected}, nil
	}
	return c.send(ctx, text, "")
}
