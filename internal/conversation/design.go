package conversation

import (
	"context"

	"legalassist-backend/internal/shared/telemetry"
)

// enterDesignStep loads the design options for req. A failed or empty fetch
// falls back to a single synthetic design so the flow never dead-ends.
func (c *Conversation) enterDesignStep(ctx context.Context, req *GenerationRequest, epoch uint64) {
	var (
		designs []Design
		err     error
	)
	if c.deps.Designs != nil {
		designs, err = c.deps.Designs.Designs(ctx, req.Category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.epoch != epoch || c.st.request != req {
		return
	}
	if err != nil {
		telemetry.Error("conversation.designs_fetch_failed", c.logFields(map[string]any{
			"category": req.Category,
			"err":      err.Error(),
		}))
	}
	if err != nil || len(designs) == 0 {
		designs = []Design{{ID: fallbackDesignID, Name: c.text("design.standard"), IsDefault: true}}
	}
	c.st.designs = designs
}

// SelectDesign generates the pending request with the chosen design.
func (c *Conversation) SelectDesign(ctx context.Context, designID string) (Outcome, error) {
	c.mu.Lock()
	if c.st.generating || c.st.request == nil {
		out := c.rejected("already_in_progress")
		c.mu.Unlock()
		return out, nil
	}
	var design *Design
	for i := range c.st.designs {
		if c.st.designs[i].ID == designID {
			design = &c.st.designs[i]
			break
		}
	}
	if design == nil {
		out := Outcome{Status: StatusRejected, Notice: c.notice("unknown_design", NoticeWarning)}
		c.mu.Unlock()
		return out, nil
	}
	var config map[string]any
	if design.ID != fallbackDesignID {
		config = design.Config
	}
	c.mu.Unlock()

	return c.execute(ctx, designID, config), nil
}

// SkipDesign generates the pending request without a design override.
func (c *Conversation) SkipDesign(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.st.generating || c.st.request == nil {
		out := c.rejected("already_in_progress")
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	return c.execute(ctx, "", nil), nil
}

// DismissDesign leaves the design step without generating and returns to the
// field form with the submitted values.
func (c *Conversation) DismissDesign(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.surface != SurfaceDesignPicker || c.st.request == nil {
		return Outcome{}, ErrNoDesignStep
	}
	if c.st.generating {
		return c.rejected("already_in_progress"), nil
	}
	c.reopenFromRequest()
	telemetry.Info("conversation.design_dismissed", c.logFields(nil))
	return Outcome{Status: StatusApplied}, nil
}

// reopenFromRequest drops the pending request and shows the field form again.
func (c *Conversation) reopenFromRequest() {
	req := c.st.request
	c.st.request = nil
	c.st.designs = nil
	c.st.surface = SurfaceFieldForm
	if req == nil {
		return
	}
	if c.st.draft == nil {
		c.st.draft = &DraftSession{
			Kind:          req.Kind,
			TemplatePath:  req.TemplatePath,
			TemplateTitle: req.TemplateTitle,
			Category:      req.Category,
			Schema:        req.Schema,
			Touched:       map[string]bool{},
			Errors:        map[string]string{},
		}
	}
	c.st.draft.Values = copyValues(req.Payload)
}
