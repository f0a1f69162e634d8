package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/shared/server/middleware"
	"legalassist-backend/internal/shared/server/respond"
)

const guestDisplayName = "Guest"

// meResponse is the identity the chat header shows.
type meResponse struct {
	UserID      string `json:"userId"`
	IsGuest     bool   `json:"isGuest"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Sign in or continue as a guest.", nil)
		return
	}
	resp := meResponse{
		UserID:  userID,
		IsGuest: middleware.IsGuest(c),
		Email:   middleware.UserEmailFromContext(c),
		Name:    middleware.UserNameFromContext(c),
	}
	resp.DisplayName = displayName(resp)
	respond.OK(c, resp)
}

func displayName(me meResponse) string {
	if me.IsGuest {
		return guestDisplayName
	}
	if name := strings.TrimSpace(me.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(me.Email, "@"); ok && local != "" {
		return local
	}
	return guestDisplayName
}
