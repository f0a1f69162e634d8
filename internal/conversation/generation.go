package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legalassist-backend/internal/shared/metrics"
	"legalassist-backend/internal/shared/telemetry"
)

// execute runs the pending generation request exactly once. The generation
// lock is taken before the collaborator is called; a second call while it is
// held, or without a pending request, is a no-op.
func (c *Conversation) execute(ctx context.Context, designID string, config map[string]any) Outcome {
	c.mu.Lock()
	if c.st.generating || c.st.request == nil {
		out := c.rejected("already_in_progress")
		c.mu.Unlock()
		return out
	}
	c.st.generating = true
	c.deactivateAll()
	req := *c.st.request
	epoch := c.st.epoch
	sessionID, lang, userID := c.st.id, c.st.language, c.st.userID
	editMode := c.st.draft != nil && c.st.draft.EditMode
	telemetry.Info("conversation.generation_started", c.logFields(map[string]any{"design_id": designID}))
	c.mu.Unlock()

	start := time.Now()
	result, err := c.generate(ctx, sessionID, lang, req, config)
	elapsed := time.Since(start)

	c.mu.Lock()
	if c.st.epoch != epoch {
		c.mu.Unlock()
		telemetry.Info("conversation.generation_dropped", map[string]any{
			"session_id":    sessionID,
			"template_path": req.TemplatePath,
		})
		metrics.ObserveGeneration(string(req.Kind), "stale", elapsed)
		return Outcome{Status: StatusRejected}
	}
	c.st.generating = false

	if err != nil {
		c.reopenFromRequest()
		code := "generation_failed"
		if errors.Is(err, ErrQuotaExhausted) {
			code = "quota_exhausted"
		}
		out := Outcome{Status: StatusFailed, Notice: c.notice(code, NoticeError)}
		fields := c.logFields(map[string]any{"template_path": req.TemplatePath, "err": err.Error()})
		c.mu.Unlock()
		telemetry.Error("conversation.generation_failed", fields)
		metrics.ObserveGeneration(string(req.Kind), "failed", elapsed)
		return out
	}

	doc := GeneratedDocument{
		ID:           c.deps.NewID(),
		Kind:         req.Kind,
		TemplatePath: req.TemplatePath,
		Title:        req.TemplateTitle,
		Message:      result.Message,
		FileURL:      result.FileURL,
		DocumentRef:  result.Document,
		Values:       copyValues(req.Payload),
		Schema:       req.Schema,
		Category:     req.Category,
		DesignID:     designID,
		CreatedAt:    c.deps.Now(),
	}
	c.st.request = nil
	c.st.draft = nil
	c.st.designs = nil
	c.st.surface = SurfaceChat
	c.st.pendingChoice = false
	c.st.mode = ModeDocumentReady
	c.st.lastGenerated = &doc

	content := result.Message
	if content == "" {
		content = c.text("generation.ready")
	}
	turnDoc := doc
	c.appendTurn(Turn{
		Speaker:     SpeakerAssistant,
		Content:     content,
		Mode:        ModeDocumentReady,
		Document:    &turnDoc,
		Affordances: activate(c.documentAffordances(true)),
	})
	fields := c.logFields(map[string]any{
		"template_path": req.TemplatePath,
		"document_id":   doc.ID,
		"design_id":     designID,
		"edit_mode":     editMode,
		"elapsed_ms":    elapsed.Milliseconds(),
	})
	c.mu.Unlock()

	telemetry.Info("conversation.generation_succeeded", fields)
	metrics.ObserveGeneration(string(req.Kind), "succeeded", elapsed)
	if c.deps.Documents != nil {
		if err := c.deps.Documents.Record(ctx, userID, doc); err != nil {
			telemetry.Error("conversation.document_record_failed", map[string]any{
				"user_id":     userID,
				"document_id": doc.ID,
				"err":         err.Error(),
			})
		}
	}
	return Outcome{Status: StatusApplied}
}

// generate calls the generation collaborator. A panic is turned into an
// error so the lock is always released.
func (c *Conversation) generate(ctx context.Context, sessionID, lang string, req GenerationRequest, config map[string]any) (res GenerateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	if req.Kind == DraftComplaint {
		return c.deps.Generator.GenerateComplaint(ctx, ComplaintRequest{
			SessionID:     sessionID,
			ComplaintData: copyValues(req.Payload),
			Language:      lang,
			DesignConfig:  config,
		})
	}
	return c.deps.Generator.Generate(ctx, GenerateRequest{
		SessionID:    sessionID,
		TemplatePath: req.TemplatePath,
		FieldValues:  copyValues(req.Payload),
		Language:     lang,
		DesignConfig: config,
	})
}
