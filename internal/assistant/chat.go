package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"legalassist-backend/internal/conversation"
)

// SendMessage posts one chat turn.
func (c *Client) SendMessage(ctx context.Context, req conversation.MessageRequest) (conversation.MessageReply, error) {
	var reply conversation.MessageReply
	if err := c.doJSON(ctx, http.MethodPost, "/chat/message", nil, req, &reply); err != nil {
		return conversation.MessageReply{}, fmt.Errorf("send message: %w", err)
	}
	return reply, nil
}

// ExitDocumentMode clears the backend drafting state of a session.
func (c *Client) ExitDocumentMode(ctx context.Context, sessionID string) error {
	body := map[string]string{"sessionId": sessionID}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/exit-document-mode", nil, body, nil); err != nil {
		return fmt.Errorf("exit document mode: %w", err)
	}
	return nil
}

// TemplateSchema fetches the field schema of a template.
func (c *Client) TemplateSchema(ctx context.Context, templatePath string) (conversation.TemplateSchema, error) {
	q := url.Values{"path": {templatePath}}
	schema, err := withRetry(ctx, "template_schema", func() (conversation.TemplateSchema, error) {
		var s conversation.TemplateSchema
		err := c.doJSON(ctx, http.MethodGet, "/templates/schema", q, nil, &s)
		return s, err
	})
	if err != nil {
		return conversation.TemplateSchema{}, fmt.Errorf("template schema %s: %w", templatePath, err)
	}
	if schema.TemplatePath == "" {
		schema.TemplatePath = templatePath
	}
	return schema, nil
}

type designsResponse struct {
	Designs []conversation.Design `json:"designs"`
}

// Designs lists the designs available for a category.
func (c *Client) Designs(ctx context.Context, category string) ([]conversation.Design, error) {
	var q url.Values
	if category = strings.TrimSpace(category); category != "" {
		q = url.Values{"category": {category}}
	}
	resp, err := withRetry(ctx, "designs", func() (designsResponse, error) {
		var r designsResponse
		err := c.doJSON(ctx, http.MethodGet, "/designs", q, nil, &r)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("designs: %w", err)
	}
	return resp.Designs, nil
}

// Generate renders a template-based document.
func (c *Client) Generate(ctx context.Context, req conversation.GenerateRequest) (conversation.GenerateResult, error) {
	var res conversation.GenerateResult
	if err := c.doJSON(ctx, http.MethodPost, "/documents/generate", nil, req, &res); err != nil {
		return conversation.GenerateResult{}, fmt.Errorf("generate document: %w", err)
	}
	return res, nil
}

// GenerateComplaint renders a complaint from structured data.
func (c *Client) GenerateComplaint(ctx context.Context, req conversation.ComplaintRequest) (conversation.GenerateResult, error) {
	var res conversation.GenerateResult
	if err := c.doJSON(ctx, http.MethodPost, "/complaints/generate", nil, req, &res); err != nil {
		return conversation.GenerateResult{}, fmt.Errorf("generate complaint: %w", err)
	}
	return res, nil
}

// FileAnalysisRequest carries extracted attachment text to the backend.
type FileAnalysisRequest struct {
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	StorageKey string `json:"storageKey"`
	Text       string `json:"text"`
	Language   string `json:"language"`
}

type fileAnalysisResponse struct {
	Analysis string `json:"analysis"`
	Response string `json:"response"`
}

// AnalyzeText asks the backend to analyze extracted attachment text.
func (c *Client) AnalyzeText(ctx context.Context, req FileAnalysisRequest) (string, error) {
	var res fileAnalysisResponse
	if err := c.doJSON(ctx, http.MethodPost, "/files/analyze", nil, req, &res); err != nil {
		return "", fmt.Errorf("analyze file: %w", err)
	}
	if res.Analysis != "" {
		return res.Analysis, nil
	}
	return res.Response, nil
}

// SubmitFeedback posts a rating of a generated document.
func (c *Client) SubmitFeedback(ctx context.Context, fb conversation.Feedback) error {
	if err := c.doJSON(ctx, http.MethodPost, "/feedback", nil, fb, nil); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	return nil
}

var (
	_ conversation.Messenger    = (*Client)(nil)
	_ conversation.SchemaSource = (*Client)(nil)
	_ conversation.DesignSource = (*Client)(nil)
	_ conversation.Generator    = (*Client)(nil)
	_ conversation.FeedbackSink = (*Client)(nil)
)
