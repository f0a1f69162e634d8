package conversation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"legalassist-backend/internal/shared/telemetry"
)

// FormRequest describes a field form to open.
type FormRequest struct {
	Kind          DraftKind
	TemplatePath  string
	Title         string
	Category      string
	KnownFields   []string
	InitialValues map[string]string
	EditMode      bool
	// Schema skips the schema fetch when set.
	Schema *TemplateSchema
}

// OpenForm opens the field form for a template. Only one draft can be live;
// a second open while a draft, an open or a generation request is in
// progress is rejected.
func (c *Conversation) OpenForm(ctx context.Context, req FormRequest) (Outcome, error) {
	req.TemplatePath = strings.TrimSpace(req.TemplatePath)
	if req.TemplatePath == "" {
		return Outcome{}, fmt.Errorf("%w: templatePath is required", ErrInvalidInput)
	}
	if req.Kind == "" {
		req.Kind = DraftForm
	}

	c.mu.Lock()
	if c.st.draft != nil || c.st.opening || c.st.request != nil || c.st.generating {
		out := c.rejected("already_in_progress")
		c.mu.Unlock()
		return out, nil
	}
	if snap := c.st.recovery; snap != nil && snap.TemplatePath != req.TemplatePath {
		out := c.blockForRecovery(snap)
		c.mu.Unlock()
		return out, nil
	}
	c.st.opening = true
	epoch := c.st.epoch
	c.mu.Unlock()

	var (
		schema   TemplateSchema
		fetchErr error
	)
	if req.Schema != nil {
		schema = *req.Schema
	} else {
		schema, fetchErr = c.deps.Schemas.TemplateSchema(ctx, req.TemplatePath)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.opening = false
	if c.st.epoch != epoch {
		telemetry.Info("conversation.open_dropped", c.logFields(map[string]any{"template_path": req.TemplatePath}))
		return Outcome{Status: StatusRejected}, nil
	}

	if fetchErr != nil || len(schema.Fields) == 0 {
		if fetchErr != nil {
			telemetry.Error("conversation.schema_fetch_failed", c.logFields(map[string]any{
				"template_path": req.TemplatePath,
				"err":           fetchErr.Error(),
			}))
		}
		fallback, ok := schemaFromKnownFields(req.TemplatePath, req.Title, req.KnownFields)
		if !ok {
			return Outcome{Status: StatusFailed, Notice: c.notice("schema_unavailable", NoticeError)}, nil
		}
		schema = fallback
	}
	if schema.TemplatePath == "" {
		schema.TemplatePath = req.TemplatePath
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = schema.DisplayTitle
	}
	if title == "" {
		title = req.TemplatePath
	}
	category := req.Category
	if category == "" {
		category = categoryOf(req.TemplatePath)
	}

	values := make(map[string]string, len(schema.Fields))
	for k, v := range req.InitialValues {
		values[k] = v
	}
	if snap := c.st.recovery; snap != nil && snap.TemplatePath == req.TemplatePath {
		for k, v := range snap.PartialValues {
			values[k] = v
		}
		c.removeAffordance(snap.TurnID, ActionResumeDraft)
		c.st.recovery = nil
	}

	c.st.draft = &DraftSession{
		Kind:          req.Kind,
		TemplatePath:  req.TemplatePath,
		TemplateTitle: title,
		Category:      category,
		Schema:        schema,
		Values:        values,
		Touched:       map[string]bool{},
		Errors:        map[string]string{},
		EditMode:      req.EditMode,
	}
	c.st.surface = SurfaceFieldForm
	c.st.pendingChoice = false
	telemetry.Info("conversation.form_opened", c.logFields(map[string]any{
		"fields":    len(schema.Fields),
		"edit_mode": req.EditMode,
		"fallback":  fetchErr != nil,
	}))
	return Outcome{Status: StatusApplied}, nil
}

// blockForRecovery refuses to open another template while an unsaved draft
// snapshot exists and offers to resume or discard it instead.
func (c *Conversation) blockForRecovery(snap *RecoverySnapshot) Outcome {
	c.deactivateAll()
	c.removeAffordance(snap.TurnID, ActionResumeDraft)
	snap.TurnID = c.appendAssistantTurn(fmt.Sprintf(c.text("recovery.prompt"), snap.TemplateTitle), []Affordance{
		{Kind: affordanceKindAction, ActionID: ActionResumeDraft, Label: c.text("action.resume_draft")},
		{Kind: affordanceKindAction, ActionID: ActionDiscardDraft, Label: c.text("action.discard_draft")},
	})
	telemetry.Info("conversation.open_blocked", c.logFields(map[string]any{"template_path": snap.TemplatePath}))
	return c.rejected("recovery_pending")
}

func schemaFromKnownFields(path, title string, known []string) (TemplateSchema, bool) {
	fields := make([]FieldSpec, 0, len(known))
	for _, key := range known {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields = append(fields, FieldSpec{Key: key, Label: key, Type: "text", Required: true})
	}
	if len(fields) == 0 {
		return TemplateSchema{}, false
	}
	return TemplateSchema{TemplatePath: path, DisplayTitle: title, Fields: fields}, true
}

// categoryOf returns the first segment of a template path.
func categoryOf(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.Index(path, "/"); i > 0 {
		return path[:i]
	}
	return path
}

func fieldError(f FieldSpec, value string) string {
	if f.Required && strings.TrimSpace(value) == "" {
		return "required"
	}
	return ""
}

func (d *DraftSession) validate(key string) {
	for _, f := range d.Schema.Fields {
		if f.Key != key {
			continue
		}
		if msg := fieldError(f, d.Values[key]); msg != "" {
			d.Errors[key] = msg
		} else {
			delete(d.Errors, key)
		}
		return
	}
}

// Progress is the rounded percentage of required fields that are filled.
func (d *DraftSession) Progress() int {
	required, filled := 0, 0
	for _, f := range d.Schema.Fields {
		if !f.Required {
			continue
		}
		required++
		if strings.TrimSpace(d.Values[f.Key]) != "" {
			filled++
		}
	}
	if required == 0 {
		return 100
	}
	return int(math.Round(float64(filled) / float64(required) * 100))
}

func (d *DraftSession) hasValues() bool {
	for _, v := range d.Values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func (c *Conversation) activeForm() (*DraftSession, error) {
	if c.st.draft == nil {
		return nil, ErrNoDraft
	}
	if c.st.surface != SurfaceFieldForm {
		return nil, ErrNoDraft
	}
	return c.st.draft, nil
}

// SetField updates one value of the open form. Touched fields are
// revalidated immediately.
func (c *Conversation) SetField(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.activeForm()
	if err != nil {
		return err
	}
	d.Values[key] = value
	if d.Touched[key] {
		d.validate(key)
	}
	return nil
}

// BlurField marks a field touched and validates it.
func (c *Conversation) BlurField(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.activeForm()
	if err != nil {
		return err
	}
	d.Touched[key] = true
	d.validate(key)
	return nil
}

// SubmitForm validates every field and, when all required fields are filled,
// hands the values to the design step. A concurrent second submit is rejected.
func (c *Conversation) SubmitForm(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.st.draft == nil {
		c.mu.Unlock()
		return Outcome{}, ErrNoDraft
	}
	if c.st.surface != SurfaceFieldForm || c.st.request != nil || c.st.generating {
		out := c.rejected("already_in_progress")
		c.mu.Unlock()
		return out, nil
	}
	d := c.st.draft
	for _, f := range d.Schema.Fields {
		d.Touched[f.Key] = true
		d.validate(f.Key)
	}
	if d.Progress() < 100 {
		out := Outcome{Status: StatusRejected, Notice: c.notice("validation_failed", NoticeWarning)}
		c.mu.Unlock()
		return out, nil
	}

	if snap := c.st.recovery; snap != nil {
		c.removeAffordance(snap.TurnID, ActionResumeDraft)
		c.st.recovery = nil
	}
	req := &GenerationRequest{
		Kind:          d.Kind,
		TemplatePath:  d.TemplatePath,
		TemplateTitle: d.TemplateTitle,
		Category:      d.Category,
		Payload:       copyValues(d.Values),
		Schema:        d.Schema,
	}
	c.st.request = req
	c.st.designs = nil
	c.st.surface = SurfaceDesignPicker
	epoch := c.st.epoch
	telemetry.Info("conversation.form_submitted", c.logFields(nil))
	c.mu.Unlock()

	c.enterDesignStep(ctx, req, epoch)
	return Outcome{Status: StatusApplied}, nil
}

// CancelForm is the confirmed abandon: every piece of drafting state is
// discarded, the backend is told and the top-level menu is offered again.
func (c *Conversation) CancelForm(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if _, err := c.activeForm(); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	telemetry.Info("conversation.form_cancelled", c.logFields(nil))
	last := c.st.lastGenerated
	c.resetDrafting()
	c.st.lastGenerated = last
	c.appendMenuTurn("menu.abandoned")
	sessionID := c.st.id
	c.mu.Unlock()

	c.exitRemote(ctx, sessionID)
	return Outcome{Status: StatusApplied}, nil
}

// DismissForm is the neutral close. Edits are never discarded silently; a
// first-fill form with input is kept as a recovery snapshot that can be
// resumed from the latest assistant turn.
func (c *Conversation) DismissForm(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.activeForm()
	if err != nil {
		return Outcome{}, err
	}
	if d.EditMode {
		return Outcome{Status: StatusRejected, Notice: c.notice("abandon_confirmation_required", NoticeWarning)}, nil
	}

	c.st.draft = nil
	c.st.surface = SurfaceChat
	if !d.hasValues() {
		telemetry.Info("conversation.form_closed", c.logFields(map[string]any{"template_path": d.TemplatePath}))
		return Outcome{Status: StatusApplied}, nil
	}

	turnID := c.latestAssistantTurnID()
	if turnID == "" {
		turnID = c.appendAssistantTurn(c.text("recovery.saved"), nil)
	}
	c.attachAffordance(turnID, Affordance{
		Kind:     affordanceKindAction,
		ActionID: ActionResumeDraft,
		Label:    c.text("action.resume"),
	})
	c.st.recovery = &RecoverySnapshot{
		Kind:          d.Kind,
		TemplatePath:  d.TemplatePath,
		TemplateTitle: d.TemplateTitle,
		Category:      d.Category,
		Fields:        append([]FieldSpec(nil), d.Schema.Fields...),
		PartialValues: copyValues(d.Values),
		TurnID:        turnID,
	}
	telemetry.Info("conversation.draft_snapshotted", c.logFields(map[string]any{
		"template_path": d.TemplatePath,
		"turn_id":       turnID,
	}))
	return Outcome{Status: StatusApplied}, nil
}

// ResumeDraft reopens the form from the recovery snapshot.
func (c *Conversation) ResumeDraft(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	snap := c.st.recovery
	if snap == nil {
		out := c.rejected("nothing_to_resume")
		c.mu.Unlock()
		return out, nil
	}
	req := FormRequest{
		Kind:          snap.Kind,
		TemplatePath:  snap.TemplatePath,
		Title:         snap.TemplateTitle,
		Category:      snap.Category,
		InitialValues: copyValues(snap.PartialValues),
		Schema: &TemplateSchema{
			TemplatePath: snap.TemplatePath,
			DisplayTitle: snap.TemplateTitle,
			Fields:       append([]FieldSpec(nil), snap.Fields...),
		},
	}
	c.mu.Unlock()

	return c.OpenForm(ctx, req)
}

// DiscardDraft drops the recovery snapshot and offers the top-level menu.
func (c *Conversation) DiscardDraft(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	snap := c.st.recovery
	if snap == nil {
		out := c.rejected("nothing_to_resume")
		c.mu.Unlock()
		return out, nil
	}
	c.removeAffordance(snap.TurnID, ActionResumeDraft)
	c.st.recovery = nil
	c.appendMenuTurn("menu.discarded")
	sessionID := c.st.id
	c.mu.Unlock()

	c.exitRemote(ctx, sessionID)
	return Outcome{Status: StatusApplied}, nil
}

func (c *Conversation) openComplaint(ctx context.Context, values map[string]string, edit bool) (Outcome, error) {
	c.mu.Lock()
	schema := c.complaintSchema()
	c.mu.Unlock()

	return c.OpenForm(ctx, FormRequest{
		Kind:          DraftComplaint,
		TemplatePath:  complaintTemplatePath,
		Title:         schema.DisplayTitle,
		Category:      complaintCategory,
		InitialValues: values,
		EditMode:      edit,
		Schema:        &schema,
	})
}

func (c *Conversation) complaintSchema() TemplateSchema {
	field := func(key, typ string, required bool) FieldSpec {
		return FieldSpec{Key: key, Label: c.text("complaint.field." + key), Type: typ, Required: required}
	}
	return TemplateSchema{
		TemplatePath: complaintTemplatePath,
		DisplayTitle: c.text("complaint.title"),
		Fields: []FieldSpec{
			field("complainant_name", "text", true),
			field("complainant_address", "textarea", true),
			field("respondent_name", "text", true),
			field("respondent_address", "textarea", false),
			field("incident_date", "date", true),
			field("incident_details", "textarea", true),
			field("relief_sought", "textarea", true),
		},
	}
}
