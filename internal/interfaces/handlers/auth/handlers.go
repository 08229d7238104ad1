package auth

import (
	"errors"

	authsvc "carbon-ledger/internal/application/auth"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const accountSessionsPrefix = middleware.AccountSessionsPrefix

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Accounts authsvc.AccountFinder
	Rdb      *redis.Client
	Config   middleware.SessionConfig
}

// Login POST /api/v1/auth/login: authenticate, create session, track it per account, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Accounts == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil || req.Address == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrAddressPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	account, err := h.Accounts.FindByAddressAndPassword(req.Address, req.Password)
	switch {
	case errors.Is(err, authsvc.ErrAddressPasswordRequired):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, authsvc.ErrUnknownAccount), errors.Is(err, authsvc.ErrIncorrectPassword):
		log.Info().Str("address", req.Address).Msg("Login rejected")
		return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
	case err != nil:
		return response.FromError(c, err)
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		AccountID: account.AccountID.String(),
		Address:   account.Address,
		Role:      account.Role,
	})
	if err := h.Rdb.SAdd(c.UserContext(), accountSessionsPrefix+account.Address, sessionID).Err(); err != nil {
		return response.FromError(c, err)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{
		"account": authsvc.Principal{
			AccountID: account.AccountID.String(),
			Address:   account.Address,
			Role:      account.Role,
		},
	}, nil)
}

// Me GET /api/v1/auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	principal, err := authsvc.VerifyPrincipal(middleware.GetUser(c))
	if err != nil {
		log.Debug().Bool("session_id_present", middleware.GetSessionID(c) != "").Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"account": principal}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()
	if sessionID != "" {
		if addr := middleware.GetPrincipal(c); addr != "" {
			_ = h.Rdb.SRem(ctx, accountSessionsPrefix+addr, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: end every session of the caller, this one included.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	addr := middleware.GetPrincipal(c)
	if addr == "" {
		return response.Unauthorized(c, "Not authenticated")
	}
	n := middleware.DestroyAccountSessions(c.UserContext(), h.Rdb, addr)
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	log.Info().Str("address", addr).Int("sessions", n).Msg("All sessions ended")
	return response.Success(c, "Logged out of all sessions", fiber.Map{"sessions": n}, nil)
}
