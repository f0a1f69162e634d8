package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/shared/telemetry"
)

// LanguageChecker reports which languages have translations.
type LanguageChecker interface {
	Supported(lang string) bool
}

// Service reads and updates user preferences.
type Service struct {
	Repo            Repo
	Languages       LanguageChecker
	DefaultLanguage string
	// OnLanguageChange is called after a language change is stored.
	OnLanguageChange func(userID, lang string)
	Now              func() time.Time
}

// Get returns the user's preferences, falling back to defaults.
func (s *Service) Get(ctx context.Context, userID string) (Preferences, error) {
	p, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Preferences{Language: s.defaultLanguage()}, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	if p.Language == "" {
		p.Language = s.defaultLanguage()
	}
	return p, nil
}

// Update applies a partial change.
func (s *Service) Update(ctx context.Context, userID string, u Update) (Preferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}

	changedLanguage := false
	if u.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*u.Language))
		if lang == "" || (s.Languages != nil && !s.Languages.Supported(lang)) {
			return Preferences{}, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, *u.Language)
		}
		changedLanguage = lang != p.Language
		p.Language = lang
	}
	if u.IntroDismissed != nil {
		p.IntroDismissed = *u.IntroDismissed
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.Repo.Put(ctx, userID, p); err != nil {
		return Preferences{}, err
	}
	if changedLanguage && s.OnLanguageChange != nil {
		s.OnLanguageChange(userID, p.Language)
	}
	return p, nil
}

// Language implements conversation.LanguageSource. Storage failures fall
// back to the default language.
func (s *Service) Language(ctx context.Context, userID string) string {
	p, err := s.Get(ctx, userID)
	if err != nil {
		telemetry.Warn("preferences.language_lookup_failed", map[string]any{
			"user_id": userID,
			"err":     err.Error(),
		})
		return s.defaultLanguage()
	}
	return p.Language
}

func (s *Service) defaultLanguage() string {
	if s.DefaultLanguage != "" {
		return s.DefaultLanguage
	}
	return "en"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ conversation.LanguageSource = (*Service)(nil)
