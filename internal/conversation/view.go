package conversation

// View is a point-in-time copy of a conversation for rendering.
type View struct {
	SessionID     string             `json:"sessionId"`
	Language      string             `json:"language"`
	Mode          Mode               `json:"mode"`
	Turns         []Turn             `json:"turns"`
	PendingChoice bool               `json:"pendingChoice"`
	Sending       bool               `json:"sending"`
	Analyzing     bool               `json:"analyzing"`
	Opening       bool               `json:"opening"`
	Generating    bool               `json:"generating"`
	Surface       Surface            `json:"surface"`
	Draft         *DraftView         `json:"draft,omitempty"`
	Recovery      *RecoveryView      `json:"recovery,omitempty"`
	Designs       []Design           `json:"designs,omitempty"`
	LastGenerated *GeneratedDocument `json:"lastGenerated,omitempty"`
	Composer      string             `json:"composer,omitempty"`
}

type DraftView struct {
	Kind          DraftKind         `json:"kind"`
	TemplatePath  string            `json:"templatePath"`
	TemplateTitle string            `json:"templateTitle"`
	Category      string            `json:"category"`
	Fields        []FieldSpec       `json:"fields"`
	Values        map[string]string `json:"values"`
	Errors        map[string]string `json:"errors"`
	EditMode      bool              `json:"editMode"`
	Progress      int               `json:"progress"`
}

type RecoveryView struct {
	TemplatePath  string `json:"templatePath"`
	TemplateTitle string `json:"templateTitle"`
	TurnID        string `json:"turnId"`
}

// View returns a deep copy of the conversation state.
func (c *Conversation) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		SessionID:     c.st.id,
		Language:      c.st.language,
		Mode:          c.st.mode,
		Turns:         make([]Turn, len(c.st.turns)),
		PendingChoice: c.st.pendingChoice,
		Sending:       c.st.sending,
		Analyzing:     c.st.analyzing,
		Opening:       c.st.opening,
		Generating:    c.st.generating,
		Surface:       c.st.surface,
		Designs:       append([]Design(nil), c.st.designs...),
		Composer:      c.st.composer,
	}
	for i, t := range c.st.turns {
		t.Affordances = append([]Affordance(nil), t.Affordances...)
		if t.Attachment != nil {
			f := *t.Attachment
			t.Attachment = &f
		}
		if t.Document != nil {
			d := *t.Document
			d.Values = copyValues(t.Document.Values)
			t.Document = &d
		}
		v.Turns[i] = t
	}
	if d := c.st.draft; d != nil {
		v.Draft = &DraftView{
			Kind:          d.Kind,
			TemplatePath:  d.TemplatePath,
			TemplateTitle: d.TemplateTitle,
			Category:      d.Category,
			Fields:        append([]FieldSpec(nil), d.Schema.Fields...),
			Values:        copyValues(d.Values),
			Errors:        copyValues(d.Errors),
			EditMode:      d.EditMode,
			Progress:      d.Progress(),
		}
	}
	if s := c.st.recovery; s != nil {
		v.Recovery = &RecoveryView{
			TemplatePath:  s.TemplatePath,
			TemplateTitle: s.TemplateTitle,
			TurnID:        s.TurnID,
		}
	}
	if g := c.st.lastGenerated; g != nil {
		d := *g
		d.Values = copyValues(g.Values)
		v.LastGenerated = &d
	}
	return v
}
