package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"legalassist-backend/internal/shared/telemetry"
)

// DefaultIdleTTL is how long an untouched conversation stays in the registry.
const DefaultIdleTTL = 2 * time.Hour

// Registry keeps one live conversation per user. Conversations are volatile;
// nothing here survives a restart. Conversations nobody has fetched for
// IdleTTL are evicted and their backend session is closed.
type Registry struct {
	deps      Deps
	languages LanguageSource
	fallback  string

	// IdleTTL <= 0 disables eviction.
	IdleTTL time.Duration

	mu        sync.Mutex
	byUser    map[string]*registryEntry
	lastSweep time.Time
}

type registryEntry struct {
	conv     *Conversation
	lastSeen time.Time
}

// NewRegistry constructs a Registry. languages may be nil, in which case
// defaultLanguage is used for every new conversation.
func NewRegistry(deps Deps, languages LanguageSource, defaultLanguage string) *Registry {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &Registry{
		deps:      deps,
		languages: languages,
		fallback:  defaultLanguage,
		IdleTTL:   DefaultIdleTTL,
		byUser:    make(map[string]*registryEntry),
	}
}

// Get returns the user's conversation, creating it on first use.
func (r *Registry) Get(ctx context.Context, userID string) *Conversation {
	r.sweep(ctx)

	r.mu.Lock()
	if e, ok := r.byUser[userID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.conv
	}
	r.mu.Unlock()

	lang := r.language(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byUser[userID]; ok {
		e.lastSeen = r.now()
		return e.conv
	}
	conv := New(r.deps, uuid.NewString(), userID, lang)
	r.byUser[userID] = &registryEntry{conv: conv, lastSeen: r.now()}
	telemetry.Info("conversation.created", map[string]any{
		"session_id": conv.st.id,
		"user_id":    userID,
		"language":   lang,
	})
	return conv
}

// Len reports how many conversations are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

// sweep evicts idle conversations. It runs at most once per half TTL.
// Conversations with a collaborator call in flight are kept.
func (r *Registry) sweep(ctx context.Context) {
	if r.IdleTTL <= 0 {
		return
	}
	now := r.now()

	r.mu.Lock()
	if now.Sub(r.lastSweep) < r.IdleTTL/2 {
		r.mu.Unlock()
		return
	}
	r.lastSweep = now
	var evicted []*Conversation
	for userID, e := range r.byUser {
		if now.Sub(e.lastSeen) < r.IdleTTL || e.conv.busy() {
			continue
		}
		delete(r.byUser, userID)
		evicted = append(evicted, e.conv)
	}
	r.mu.Unlock()

	if len(evicted) == 0 {
		return
	}
	telemetry.Info("conversation.evicted", map[string]any{
		"count":    len(evicted),
		"idle_ttl": r.IdleTTL.String(),
	})
	closeCtx := context.WithoutCancel(ctx)
	go func() {
		for _, conv := range evicted {
			conv.Close(closeCtx)
		}
	}()
}

func (r *Registry) now() time.Time {
	if r.deps.Now != nil {
		return r.deps.Now()
	}
	return time.Now().UTC()
}

// Reset ends the user's conversation, including the backend drafting session,
// and starts a fresh one.
func (r *Registry) Reset(ctx context.Context, userID string) *Conversation {
	r.mu.Lock()
	old := r.byUser[userID]
	delete(r.byUser, userID)
	r.mu.Unlock()

	if old != nil {
		old.conv.Close(ctx)
	}
	return r.Get(ctx, userID)
}

// SetLanguage applies a language change to a live conversation.
func (r *Registry) SetLanguage(userID, lang string) {
	r.mu.Lock()
	e := r.byUser[userID]
	r.mu.Unlock()
	if e != nil {
		e.conv.SetLanguage(lang)
	}
}

func (r *Registry) language(ctx context.Context, userID string) string {
	if r.languages == nil {
		return r.fallback
	}
	if lang := r.languages.Language(ctx, userID); lang != "" {
		return lang
	}
	return r.fallback
}
