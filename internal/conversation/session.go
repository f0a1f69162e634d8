package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"legalassist-backend/internal/shared/metrics"
	"legalassist-backend/internal/shared/telemetry"
)

// state is the single session-state object. Every lock of the orchestration
// is an explicit field here and is only read or written with Conversation.mu
// held.
type state struct {
	id       string
	userID   string
	language string
	mode     Mode
	turns    []Turn

	pendingChoice bool
	sending       bool
	analyzing     bool
	opening       bool
	generating    bool

	surface       Surface
	draft         *DraftSession
	recovery      *RecoverySnapshot
	request       *GenerationRequest
	designs       []Design
	lastGenerated *GeneratedDocument
	composer      string

	// epoch is bumped whenever the drafting context is reset; results of
	// collaborator calls started under an older epoch are dropped.
	epoch uint64
}

// Conversation is one user's guided drafting session.
type Conversation struct {
	deps Deps

	mu sync.Mutex
	st state
}

// New creates a conversation seeded with the top-level menu turn.
func New(deps Deps, sessionID, userID, language string) *Conversation {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	if deps.FeedbackTimeout <= 0 {
		deps.FeedbackTimeout = 10 * time.Second
	}
	c := &Conversation{
		deps: deps,
		st: state{
			id:       sessionID,
			userID:   userID,
			language: language,
			mode:     ModeAutoDetect,
			surface:  SurfaceChat,
		},
	}
	c.appendMenuTurn("menu.welcome")
	return c
}

// ID returns the backend session identifier.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.id
}

// SetLanguage changes the language used for collaborator calls and notices.
func (c *Conversation) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lang = strings.TrimSpace(lang); lang != "" {
		c.st.language = lang
	}
}

func (c *Conversation) text(key string) string {
	if c.deps.Catalog == nil {
		return key
	}
	return c.deps.Catalog.Text(c.st.language, key)
}

func (c *Conversation) notice(code string, level NoticeLevel) *Notice {
	metrics.IncNotice(code)
	return &Notice{Code: code, Level: level, Message: c.text("notice." + code)}
}

func (c *Conversation) rejected(code string) Outcome {
	return Outcome{Status: StatusRejected, Notice: c.notice(code, NoticeInfo)}
}

func (c *Conversation) logFields(extra map[string]any) map[string]any {
	fields := map[string]any{
		"session_id": c.st.id,
		"user_id":    c.st.userID,
	}
	if c.st.draft != nil {
		fields["template_path"] = c.st.draft.TemplatePath
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// deactivateAll marks every affordance in the transcript inactive.
func (c *Conversation) deactivateAll() {
	for i := range c.st.turns {
		for j := range c.st.turns[i].Affordances {
			c.st.turns[i].Affordances[j].Active = false
		}
	}
}

func (c *Conversation) appendTurn(t Turn) string {
	if t.ID == "" {
		t.ID = c.deps.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = c.deps.Now()
	}
	if len(t.Affordances) > 0 {
		c.deactivateAll()
	}
	c.st.turns = append(c.st.turns, t)
	return t.ID
}

func (c *Conversation) appendUserTurn(content string, file *FileRef) string {
	return c.appendTurn(Turn{Speaker: SpeakerUser, Content: content, Attachment: file})
}

func (c *Conversation) appendAssistantTurn(content string, affs []Affordance) string {
	return c.appendTurn(Turn{
		Speaker:     SpeakerAssistant,
		Content:     content,
		Mode:        c.st.mode,
		Affordances: activate(affs),
	})
}

func (c *Conversation) appendMenuTurn(key string) string {
	return c.appendAssistantTurn(c.text(key), c.menuAffordances())
}

func (c *Conversation) menuAffordances() []Affordance {
	return []Affordance{
		{Kind: affordanceKindAction, ActionID: ActionCreateDocument, Label: c.text("action.create_document")},
		{Kind: affordanceKindAction, ActionID: ActionBrowseTemplates, Label: c.text("action.browse_templates")},
		{Kind: affordanceKindAction, ActionID: ActionFileComplaint, Label: c.text("action.file_complaint")},
	}
}

func (c *Conversation) documentAffordances(withRating bool) []Affordance {
	affs := []Affordance{
		{Kind: affordanceKindAction, ActionID: ActionEditDocument, Label: c.text("action.edit_document")},
		{Kind: affordanceKindAction, ActionID: ActionExitDocumentMode, Label: c.text("action.exit_document_mode")},
		{Kind: affordanceKindAction, ActionID: ActionNewDocument, Label: c.text("action.new_document")},
	}
	if withRating {
		affs = append(affs,
			Affordance{Kind: affordanceKindAction, ActionID: ActionRatePositive, Label: c.text("action.rate_positive")},
			Affordance{Kind: affordanceKindAction, ActionID: ActionRateNegative, Label: c.text("action.rate_negative")},
		)
	}
	return affs
}

func activate(affs []Affordance) []Affordance {
	if len(affs) == 0 {
		return nil
	}
	out := make([]Affordance, len(affs))
	for i, a := range affs {
		a.Active = true
		out[i] = a
	}
	return out
}

func (c *Conversation) turnIndex(turnID string) int {
	for i := range c.st.turns {
		if c.st.turns[i].ID == turnID {
			return i
		}
	}
	return -1
}

// latestAssistantTurnID returns the ID of the most recent assistant turn.
func (c *Conversation) latestAssistantTurnID() string {
	for i := len(c.st.turns) - 1; i >= 0; i-- {
		if c.st.turns[i].Speaker == SpeakerAssistant {
			return c.st.turns[i].ID
		}
	}
	return ""
}

// attachAffordance adds aff as the only active affordance of the transcript,
// on the turn identified by turnID. Any earlier affordance with the same
// action ID on that turn is replaced.
func (c *Conversation) attachAffordance(turnID string, aff Affordance) bool {
	idx := c.turnIndex(turnID)
	if idx < 0 {
		return false
	}
	c.deactivateAll()
	c.removeAffordance(turnID, aff.ActionID)
	aff.Active = true
	c.st.turns[idx].Affordances = append(c.st.turns[idx].Affordances, aff)
	return true
}

func (c *Conversation) removeAffordance(turnID, actionID string) {
	idx := c.turnIndex(turnID)
	if idx < 0 {
		return
	}
	affs := c.st.turns[idx].Affordances[:0]
	for _, a := range c.st.turns[idx].Affordances {
		if a.ActionID != actionID {
			affs = append(affs, a)
		}
	}
	c.st.turns[idx].Affordances = affs
}

// findActive returns the affordance with actionID on turnID if it is active.
func (c *Conversation) findActive(turnID, actionID string) (Affordance, bool) {
	idx := c.turnIndex(turnID)
	if idx < 0 {
		return Affordance{}, false
	}
	for _, a := range c.st.turns[idx].Affordances {
		if a.ActionID == actionID && a.Active {
			return a, true
		}
	}
	return Affordance{}, false
}

// resetDrafting discards every piece of drafting state and starts a new epoch.
func (c *Conversation) resetDrafting() {
	c.st.pendingChoice = false
	c.st.draft = nil
	c.st.recovery = nil
	c.st.request = nil
	c.st.generating = false
	c.st.designs = nil
	c.st.lastGenerated = nil
	c.st.surface = SurfaceChat
	c.st.mode = ModeAutoDetect
	c.st.epoch++
	c.deactivateAll()
}

// exitRemote notifies the backend that the drafting session is over. Failures
// are logged only.
func (c *Conversation) exitRemote(ctx context.Context, sessionID string) {
	if c.deps.Messenger == nil {
		return
	}
	if err := c.deps.Messenger.ExitDocumentMode(ctx, sessionID); err != nil {
		telemetry.Error("conversation.exit_remote_failed", map[string]any{
			"session_id": sessionID,
			"err":        err.Error(),
		})
	}
}

// Close ends the server-side drafting session. Used when the conversation is
// being replaced.
func (c *Conversation) Close(ctx context.Context) {
	c.mu.Lock()
	sessionID := c.st.id
	c.resetDrafting()
	c.mu.Unlock()
	c.exitRemote(ctx, sessionID)
}

// busy reports whether a collaborator call is in flight.
func (c *Conversation) busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.sending || c.st.analyzing || c.st.opening || c.st.generating
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
