// Package handler exposes the journey over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/platform/middleware"
	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/httputil"
	"f2f-cri/pkg/requestcontext"
)

const instructionsGenerated = "Instructions PDF Generated"

// Service is the journey surface the handlers drive.
type Service interface {
	CreateSession(ctx context.Context, req *models.CreateSessionRequest) (*models.CreateSessionResult, error)
	SelectDocument(ctx context.Context, sessionID string, req *models.DocumentSelectionRequest) error
	Authorize(ctx context.Context, sessionID string) (*models.AuthorizationResult, error)
	ExchangeToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResult, error)
	UserInfo(ctx context.Context, accessToken string) (*models.UserInfoResult, error)
	Abort(ctx context.Context, sessionID string, req *models.AbortRequest) (*models.AbortResult, error)
	HandleCallback(ctx context.Context, req *models.CallbackRequest) error
	SessionConfiguration(ctx context.Context, sessionID string) (*models.SessionConfigResult, error)
}

// KeySet publishes our verification keys. Implemented by jwttoken.Signer.
type KeySet interface {
	JWKS() (*jwttoken.JWKSet, error)
}

type Handler struct {
	service Service
	keys    KeySet
	logger  *slog.Logger
}

func New(service Service, keys KeySet, logger *slog.Logger) *Handler {
	return &Handler{service: service, keys: keys, logger: logger}
}

// Register mounts the journey routes. Front-end routes carrying the session
// header are grouped behind RequireSessionID.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireContentType("application/json")).Post("/session", h.HandleCreateSession)
	r.With(middleware.RequireContentType("application/x-www-form-urlencoded")).Post("/token", h.HandleToken)
	r.Post("/userinfo", h.HandleUserInfo)
	r.With(middleware.RequireContentType("application/json")).Post("/callback", h.HandleCallback)
	r.Get("/.well-known/jwks.json", h.HandleJWKS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSessionID(h.logger))
		r.Get("/session-configuration", h.HandleSessionConfiguration)
		r.With(middleware.RequireContentType("application/json")).Post("/documentSelection", h.HandleDocumentSelection)
		r.Get("/authorization", h.HandleAuthorization)
		r.Post("/abort", h.HandleAbort)
	})
}

// HandleCreateSession implements POST /session.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateSessionRequest](ctx, w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.service.CreateSession(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create session failed", err, "client_id", req.ClientID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleDocumentSelection implements POST /documentSelection.
func (h *Handler) HandleDocumentSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	req, ok := httputil.DecodeAndPrepare[models.DocumentSelectionRequest](ctx, w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.SelectDocument(ctx, sessionID, req); err != nil {
		h.fail(ctx, w, "document selection failed", err, "session_id", sessionID)
		return
	}
	httputil.WriteText(w, http.StatusOK, instructionsGenerated)
}

// HandleAuthorization implements GET /authorization.
func (h *Handler) HandleAuthorization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	res, err := h.service.Authorize(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "authorization failed", err, "session_id", sessionID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleToken implements POST /token with a form-encoded body.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse token form",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "invalid form body"))
		return
	}
	req := &models.TokenRequest{
		GrantType:           r.PostForm.Get("grant_type"),
		Code:                r.PostForm.Get("code"),
		RedirectURI:         r.PostForm.Get("redirect_uri"),
		ClientAssertionType: r.PostForm.Get("client_assertion_type"),
		ClientAssertion:     r.PostForm.Get("client_assertion"),
	}

	res, err := h.service.ExchangeToken(ctx, req)
	if err != nil {
		h.fail(ctx, w, "token exchange failed", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleUserInfo implements POST /userinfo. A credential that is not ready
// yet is answered with 202.
func (h *Handler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, err := jwttoken.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		h.fail(ctx, w, "userinfo refused", err)
		return
	}

	res, err := h.service.UserInfo(ctx, token)
	if err != nil {
		h.fail(ctx, w, "userinfo failed", err)
		return
	}
	if res.Pending {
		httputil.WriteJSON(w, http.StatusAccepted, res)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleAbort implements POST /abort. The body is optional.
func (h *Handler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	req := &models.AbortRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode abort body", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Abort(ctx, sessionID, req)
	if err != nil {
		h.fail(ctx, w, "abort failed", err, "session_id", sessionID)
		return
	}
	w.Header().Set("Location", res.Location)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleCallback implements POST /callback, the vendor's notification hook.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CallbackRequest](ctx, w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.HandleCallback(ctx, req); err != nil {
		h.fail(ctx, w, "callback failed", err, "vendor_session_id", req.SessionID, "topic", req.Topic)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

// HandleSessionConfiguration implements GET /session-configuration.
func (h *Handler) HandleSessionConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	res, err := h.service.SessionConfiguration(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "session configuration failed", err, "session_id", sessionID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleJWKS implements GET /.well-known/jwks.json.
func (h *Handler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set, err := h.keys.JWKS()
	if err != nil {
		h.fail(ctx, w, "jwks unavailable", dErrors.Wrap(err, dErrors.CodeInternal, "key set unavailable"))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, set)
}

// fail logs err with its detail and writes only the short domain message.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
