package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/internal/notices"
	"github.com/charlesng35/noticeboard/internal/services"
	apperrors "github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
	"github.com/charlesng35/noticeboard/web"
)

// ActionTokenIssuer mints the per-viewer token embedded in dismissible banners.
type ActionTokenIssuer interface {
	IssueActionToken(action, userID, sessionID string) (string, error)
}

// NoticeHandler serves banners, the dismiss endpoint and the catalog API.
type NoticeHandler struct {
	renderer  *notices.Renderer
	dismisser *notices.Dismisser
	service   *services.NoticeService
	tokens    ActionTokenIssuer
}

// NewNoticeHandler constructs a notice handler.
func NewNoticeHandler(renderer *notices.Renderer, dismisser *notices.Dismisser, service *services.NoticeService, tokens ActionTokenIssuer) (*NoticeHandler, error) {
	if renderer == nil || dismisser == nil || service == nil || tokens == nil {
		return nil, errors.New("notice handler: renderer, dismisser, service and token issuer are required")
	}
	return &NoticeHandler{
		renderer:  renderer,
		dismisser: dismisser,
		service:   service,
		tokens:    tokens,
	}, nil
}

// Banners renders every active notice for the caller as an HTML fragment.
func (h *NoticeHandler) Banners(c *gin.Context) {
	subject := subjectFromContext(c)
	if subject.UserID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	ctx := requestContext(c)

	token, err := h.tokens.IssueActionToken(notices.ActionDismiss, subject.UserID, subject.SessionID)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	active, err := h.service.Active(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	html, err := h.renderer.RenderAll(ctx, notices.Viewer{UserID: subject.UserID, SessionID: subject.SessionID, Token: token}, active)
	if err != nil {
		logger.WithModule("notices").Error("render notices", zap.Error(err))
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// Script serves the client trigger.
func (h *NoticeHandler) Script(c *gin.Context) {
	script, err := web.DismissScript()
	if err != nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", script)
}

// Dismiss handles the form-encoded dismiss request. Failures answer with a
// bare {"success":false} so callers learn nothing about the cause.
func (h *NoticeHandler) Dismiss(c *gin.Context) {
	req := notices.DismissRequest{
		Action:     c.PostForm("action"),
		ID:         c.PostForm("id"),
		Scope:      c.PostForm("meta"),
		TTLSeconds: parseSeconds(c.PostForm("time")),
		Required:   parseFlag(c.PostForm("is_required")),
		Token:      strings.TrimSpace(c.PostForm("token")),
		Subject:    subjectFromContext(c),
	}

	outcome, err := h.dismisser.Dismiss(requestContext(c), req)
	switch {
	case err == nil:
		logger.WithModule("notices").Debug("dismiss accepted",
			zap.String("id", notices.SanitizeID(req.ID)),
			zap.String("outcome", string(outcome)),
		)
		response.Outcome(c, http.StatusOK, true)
	case errors.Is(err, notices.ErrInvalidToken):
		logger.WithModule("notices").Warn("dismiss rejected: invalid token",
			zap.String("user_id", req.Subject.UserID),
		)
		response.Outcome(c, http.StatusForbidden, false)
	case errors.Is(err, notices.ErrMissingID), errors.Is(err, notices.ErrUnknownAction):
		response.Outcome(c, http.StatusBadRequest, false)
	default:
		logger.WithModule("notices").Error("dismiss failed",
			zap.String("id", notices.SanitizeID(req.ID)),
			zap.Error(err),
		)
		response.Outcome(c, http.StatusInternalServerError, false)
	}
}

// List returns the notice catalog.
func (h *NoticeHandler) List(c *gin.Context) {
	views, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// Create persists a notice.
func (h *NoticeHandler) Create(c *gin.Context) {
	var input services.CreateNoticeInput
	if !bindAndValidate(c, &input) {
		return
	}

	record, err := h.service.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// Delete removes a persisted notice.
func (h *NoticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ResetDismissals clears every dismissed flag of a notice.
func (h *NoticeHandler) ResetDismissals(c *gin.Context) {
	removed, err := h.service.ResetDismissals(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_flags_removed": removed})
}

func parseSeconds(value string) int64 {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return seconds
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
