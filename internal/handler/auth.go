package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/middleware"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/repository"
	"github.com/iliyamo/astra-care/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Contexts *repository.ContextRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, mc *repository.ContextRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Contexts: mc}
}

// Register creates the account, seeds a default mission context for its
// subject and returns a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return badRequest(c, "full_name required")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !model.ValidRole(role) {
		role = model.RoleAstronaut
	}
	aid := strings.TrimSpace(req.AstronautID)
	if aid == "" {
		aid = "AST-" + strings.ToUpper(uuid.NewString()[:4])
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := model.User{Email: req.Email, FullName: strings.TrimSpace(req.FullName), Role: role, AstronautID: aid}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return badRequest(c, err.Error())
		}
		return failed(c, "create user", err)
	}
	if _, err := h.Contexts.Get(ctx, aid); errors.Is(err, repository.ErrNotFound) {
		mc := model.DefaultMissionContext(aid)
		mc.UpdatedAt = time.Now().UTC()
		if err := h.Contexts.Upsert(ctx, mc); err != nil {
			return failed(c, "create mission context", err)
		}
	}
	return h.issue(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return failed(c, "query", err)
	}
	if !utils.VerifyPassword(rec.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}
	now := time.Now().UTC()
	if err := h.Users.TouchLogin(ctx, rec.ID, now); err != nil {
		return failed(c, "update login", err)
	}
	rec.LastLogin = &now
	return h.issue(c, http.StatusOK, rec.User)
}

func (h *AuthHandler) issue(c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, Role: u.Role, AstronautID: u.AstronautID}, h.Cfg.AccessTTLMin)
	if err != nil {
		return failed(c, "issue access", err)
	}
	return c.JSON(status, model.AuthResponse{AccessToken: access.Token, TokenType: "bearer", User: u})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, rec.User)
}

// UpdateProfile changes the caller's display name and avatar.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req model.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return badRequest(c, "full_name must not be empty")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.UpdateProfile(ctx, middleware.UserID(c), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return failed(c, "update profile", err)
	}
	return c.JSON(http.StatusOK, u)
}
