package documents

import "time"

// DocumentResponse is the outward-facing summary of a generated document.
type DocumentResponse struct {
	DocumentID   string    `json:"documentId"`
	Kind         string    `json:"kind"`
	TemplatePath string    `json:"templatePath"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	DesignID     string    `json:"designId,omitempty"`
	FileURL      string    `json:"fileUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DocumentDetailResponse adds the submitted field values.
type DocumentDetailResponse struct {
	DocumentResponse
	Message string            `json:"message,omitempty"`
	Values  map[string]string `json:"values"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		Kind:         doc.Kind,
		TemplatePath: doc.TemplatePath,
		Title:        doc.Title,
		Category:     doc.Category,
		DesignID:     doc.DesignID,
		FileURL:      doc.FileURL,
		CreatedAt:    doc.CreatedAt,
	}
}

func toDetailResponse(doc Document) DocumentDetailResponse {
	values := doc.Values
	if values == nil {
		values = map[string]string{}
	}
	return DocumentDetailResponse{
		DocumentResponse: toResponse(doc),
		Message:          doc.Message,
		Values:           values,
	}
}
