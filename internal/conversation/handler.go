package conversation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/shared/server/middleware"
	"legalassist-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Uploader stores attachment bytes and returns their reference.
type Uploader interface {
	Save(ctx context.Context, userID, fileName string, r io.Reader) (FileRef, error)
	// Discard removes an attachment the conversation did not accept.
	Discard(ctx context.Context, file FileRef)
}

// Handler wires HTTP handlers to the conversation registry.
type Handler struct {
	Registry *Registry
	Uploads  Uploader
}

// NewHandler constructs a Handler.
func NewHandler(reg *Registry, uploads Uploader) *Handler {
	return &Handler{Registry: reg, Uploads: uploads}
}

// RegisterRoutes attaches conversation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/conversation")
	g.GET("", h.view)
	g.DELETE("", h.reset)
	g.POST("/messages", h.sendMessage)
	g.POST("/actions", h.click)
	g.POST("/form/fields", h.setField)
	g.POST("/form/submit", h.submitForm)
	g.POST("/form/cancel", h.cancelForm)
	g.POST("/form/dismiss", h.dismissForm)
	g.POST("/design/select", h.selectDesign)
	g.POST("/design/skip", h.skipDesign)
	g.POST("/design/dismiss", h.dismissDesign)
	g.POST("/attachments", h.uploadAttachment)
	g.POST("/speech", h.dictate)
}

type actionResponse struct {
	Outcome      Outcome `json:"outcome"`
	Conversation View    `json:"conversation"`
}

func (h *Handler) conversation(c *gin.Context) *Conversation {
	return h.Registry.Get(c.Request.Context(), middleware.UserIDFromContext(c))
}

func (h *Handler) write(c *gin.Context, conv *Conversation, out Outcome, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrStaleAffordance):
			respond.Error(c, http.StatusConflict, "stale_affordance", err.Error(), nil)
		case errors.Is(err, ErrNoDraft):
			respond.Error(c, http.StatusConflict, "no_draft", err.Error(), nil)
		case errors.Is(err, ErrNoDesignStep):
			respond.Error(c, http.StatusConflict, "no_design_step", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "conversation action failed", nil)
		}
		return
	}
	c.Set("outcome", string(out.Status))
	respond.OK(c, actionResponse{Outcome: out, Conversation: conv.View()})
}

func (h *Handler) view(c *gin.Context) {
	respond.OK(c, h.conversation(c).View())
}

func (h *Handler) reset(c *gin.Context) {
	conv := h.Registry.Reset(c.Request.Context(), middleware.UserIDFromContext(c))
	respond.OK(c, conv.View())
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	conv := h.conversation(c)
	out, err := conv.SendMessage(c.Request.Context(), req.Text)
	h.write(c, conv, out, err)
}

type clickRequest struct {
	TurnID   string `json:"turnId"`
	ActionID string `json:"actionId"`
}

func (h *Handler) click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.TurnID) == "" || strings.TrimSpace(req.ActionID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "turnId and actionId are required", nil)
		return
	}
	conv := h.conversation(c)
	out, err := conv.Click(c.Request.Context(), req.TurnID, req.ActionID)
	h.write(c, conv, out, err)
}

type fieldRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Blur  bool   `json:"blur"`
}

func (h *Handler) setField(c *gin.Context) {
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Key) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "key is required", nil)
		return
	}
	conv := h.conversation(c)
	err := conv.SetField(req.Key, req.Value)
	if err == nil && req.Blur {
		err = conv.BlurField(req.Key)
	}
	h.write(c, conv, Outcome{Status: StatusApplied}, err)
}

func (h *Handler) submitForm(c *gin.Context) {
	conv := h.conversation(c)
	out, err := conv.SubmitForm(c.Request.Context())
	h.write(c, conv, out, err)
}

func (h *Handler) cancelForm(c *gin.Context) {
	conv := h.conversation(c)
	out, err := conv.CancelForm(c.Request.Context())
	h.write(c, conv, out, err)
}

func (h *Handler) dismissForm(c *gin.Context) {
	conv := h.conversation(c)
	out, err := conv.DismissForm(c.Request.Context())
	h.write(c, conv, out, err)
}

type designRequest struct {
	DesignID string `json:"designId"`
}

func (h *Handler) selectDesign(c *gin.Context) {
	var req designRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DesignID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "designId is required", nil)
		return
	}
	conv := h.conversation(c)
	out, err := conv.SelectDesign(c.Request.Context(), req.DesignID)
	h.write(c, conv, out, err)
}

func (h *Handler) skipDesign(c *gin.Context) {
	conv := h.conversation(c)
	out, err := conv.SkipDesign(c.Request.Context())
	h.write(c, conv, out, err)
}

func (h *Handler) dismissDesign(c *gin.Context) {
	conv := h.conversation(c)
	out, err := conv.DismissDesign(c.Request.Context())
	h.write(c, conv, out, err)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	if h.Uploads == nil {
		respond.Error(c, http.StatusServiceUnavailable, "uploads_disabled", "attachments are not configured", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	conv := h.conversation(c)
	if out, ok := conv.AcceptsInput(); !ok {
		h.write(c, conv, out, nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	ref, err := h.Uploads.Save(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "upload_failed", "failed to store attachment", nil)
		}
		return
	}

	out, err := conv.AnalyzeFile(c.Request.Context(), ref)
	if err != nil || out.Status == StatusRejected {
		h.Uploads.Discard(context.WithoutCancel(c.Request.Context()), ref)
	}
	h.write(c, conv, out, err)
}

func (h *Handler) dictate(c *gin.Context) {
	var req Utterance
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	conv := h.conversation(c)
	out, err := conv.Dictate(c.Request.Context(), req)
	h.write(c, conv, out, err)
}
