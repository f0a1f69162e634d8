// Package i18n serves the localized strings shown by the conversation engine.
package i18n

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog maps language -> key -> text.
type Catalog struct {
	texts map[string]map[string]string
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a Catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var texts map[string]map[string]string
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if _, ok := texts[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("parse catalog: missing %q language", DefaultLanguage)
	}
	return &Catalog{texts: texts}, nil
}

// MustLoad is Load for process start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Text returns the text for key in lang, falling back to the default
// language and finally to the key itself.
func (c *Catalog) Text(lang, key string) string {
	if c == nil {
		return key
	}
	if t, ok := c.texts[normalize(lang)][key]; ok {
		return t
	}
	if t, ok := c.texts[DefaultLanguage][key]; ok {
		return t
	}
	return key
}

// Supported reports whether lang has its own translations.
func (c *Catalog) Supported(lang string) bool {
	if c == nil {
		return false
	}
	_, ok := c.texts[normalize(lang)]
	return ok
}

// Languages lists the catalog languages.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.texts))
	for lang := range c.texts {
		out = append(out, lang)
	}
	return out
}

// normalize maps "en-US" style tags to their base language.
func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
