package conversation

import (
	"context"

	"legalassist-backend/internal/shared/telemetry"
)

func (c *Conversation) editDocument(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	doc := c.st.lastGenerated
	if doc == nil {
		out := c.rejected("no_document")
		c.mu.Unlock()
		return out, nil
	}
	values := copyValues(doc.Values)
	if doc.Kind == DraftComplaint {
		c.mu.Unlock()
		return c.openComplaint(ctx, values, true)
	}
	req := FormRequest{
		Kind:          doc.Kind,
		TemplatePath:  doc.TemplatePath,
		Title:         doc.Title,
		Category:      doc.Category,
		InitialValues: values,
		EditMode:      true,
	}
	if len(doc.Schema.Fields) > 0 {
		schema := doc.Schema
		schema.Fields = append([]FieldSpec(nil), doc.Schema.Fields...)
		req.Schema = &schema
	}
	c.mu.Unlock()

	return c.OpenForm(ctx, req)
}

func (c *Conversation) exitDocumentMode(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	c.resetDrafting()
	c.appendAssistantTurn(c.text("exit.done"), nil)
	sessionID := c.st.id
	telemetry.Info("conversation.document_mode_exited", c.logFields(nil))
	c.mu.Unlock()

	c.exitRemote(ctx, sessionID)
	return Outcome{Status: StatusApplied}, nil
}

func (c *Conversation) newDocument(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	c.resetDrafting()
	c.appendMenuTurn("menu.new_document")
	sessionID := c.st.id
	telemetry.Info("conversation.new_document", c.logFields(nil))
	c.mu.Unlock()

	c.exitRemote(ctx, sessionID)
	return Outcome{Status: StatusApplied}, nil
}

// rate records feedback for the last document without waiting for it.
func (c *Conversation) rate(_ context.Context, positive bool) (Outcome, error) {
	c.mu.Lock()
	doc := c.st.lastGenerated
	if doc == nil {
		out := c.rejected("no_document")
		c.mu.Unlock()
		return out, nil
	}
	fb := Feedback{
		SessionID:    c.st.id,
		UserID:       c.st.userID,
		DocumentID:   doc.ID,
		TemplatePath: doc.TemplatePath,
		Positive:     positive,
		CreatedAt:    c.deps.Now(),
	}
	c.appendAssistantTurn(c.text("feedback.thanks"), c.documentAffordances(false))
	c.mu.Unlock()

	if c.deps.Feedback != nil {
		go c.submitFeedback(fb)
	}
	return Outcome{Status: StatusApplied}, nil
}

func (c *Conversation) submitFeedback(fb Feedback) {
	ctx, cancel := context.WithTimeout(context.Background(), c.deps.FeedbackTimeout)
	defer cancel()
	if err := c.deps.Feedback.SubmitFeedback(ctx, fb); err != nil {
		telemetry.Error("conversation.feedback_failed", map[string]any{
			"session_id":  fb.SessionID,
			"document_id": fb.DocumentID,
			"err":         err.Error(),
		})
		return
	}
	telemetry.Info("conversation.feedback_submitted", map[string]any{
		"session_id":  fb.SessionID,
		"document_id": fb.DocumentID,
		"positive":    fb.Positive,
	})
}
