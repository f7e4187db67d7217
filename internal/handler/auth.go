package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/service"
)

// AuthHandler serves registration, login and token session endpoints.
type AuthHandler struct {
	IDs Identity
	Log *zap.Logger
}

func NewAuthHandler(ids Identity, log *zap.Logger) *AuthHandler {
	return &AuthHandler{IDs: ids, Log: log}
}

// ----- DTOs -----

type registerClientReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type registerAdvocateReq struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BarNumber string `json:"bar_number"`
	Password  string `json:"password"`
}

// loginReq takes the role and its login key: the email for clients, the
// bar number for advocates.  Login may be given through the dedicated
// email/bar_number fields instead.
type loginReq struct {
	Role      string `json:"role"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	BarNumber string `json:"bar_number"`
	Password  string `json:"password"`
}

func (r loginReq) key(role model.Role) string {
	if k := strings.TrimSpace(r.Login); k != "" {
		return k
	}
	if role == model.RoleAdvocate {
		return strings.TrimSpace(r.BarNumber)
	}
	return strings.TrimSpace(r.Email)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterClient: create a client and return tokens immediately.
func (h *AuthHandler) RegisterClient(c echo.Context) error {
	var req registerClientReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.IDs.RegisterClient(ctx, service.ClientRegistration{Name: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return h.issue(ctx, c, http.StatusCreated, a)
}

// RegisterAdvocate: create an advocate (and empty profile) and return tokens.
// When a registration fee applies the advocate stays inactive until paid.
func (h *AuthHandler) RegisterAdvocate(c echo.Context) error {
	var req registerAdvocateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.IDs.RegisterAdvocate(ctx, service.AdvocateRegistration{
		Name: req.Name, Email: req.Email, Phone: req.Phone, BarNumber: req.BarNumber, Password: req.Password,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return h.issue(ctx, c, http.StatusCreated, a)
}

// Login verifies the credential.  Unknown accounts and wrong passwords get
// the same 401 body so the endpoint does not reveal which accounts exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return badRequest(c, "role must be client or advocate")
	}
	key := req.key(role)
	if key == "" || req.Password == "" {
		return badRequest(c, "login/password required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.IDs.Authenticate(ctx, role, key, req.Password)
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrBadCredential) {
		h.Log.Info("login failed", zap.String("role", string(role)))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return h.issue(ctx, c, http.StatusOK, a)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.IDs.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrBadCredential) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access":  tokenPart{Token: pair.AccessToken, Expires: pair.AccessExpiresAt},
		"refresh": tokenPart{Token: pair.RefreshToken, Expires: pair.RefreshExpiresAt},
	})
}

// Logout revokes the given refresh token, or all of the caller's tokens
// when none is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.IDs.Logout(ctx, uid, strings.TrimSpace(req.RefreshToken)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	a, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toAccount(a))
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, a model.Account) error {
	pair, err := h.IDs.IssueTokens(ctx, a)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(status, toAuth(a, pair))
}
