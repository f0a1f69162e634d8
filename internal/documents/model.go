package documents

import "time"

// Document is one generated document in a user's history.
type Document struct {
	ID           string
	UserID       string
	Kind         string
	TemplatePath string
	Title        string
	Category     string
	DesignID     string
	FileURL      string
	Message      string
	Values       map[string]string
	CreatedAt    time.Time
}
