package fiber

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/internal/logging"
)

const (
	sessionCookie = "authorization"
	bearerPrefix  = "Bearer "
)

// Auth outcomes reported to the Recorder
const (
	authOK       = "ok"
	authMissing  = "missing"
	authRejected = "rejected"
	authError    = "error"
)

// extractToken reads "Bearer <token>" from the authorization cookie, or
// from the Authorization header when no cookie is present.
func extractToken(c fiber.Ctx) (string, error) {
	raw := c.Cookies(sessionCookie)
	if raw != "" {
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	} else {
		raw = c.Get(fiber.HeaderAuthorization)
	}

	if raw == "" {
		return "", core.ErrMissingToken
	}
	if !strings.HasPrefix(raw, bearerPrefix) {
		return "", core.ErrInvalidAuthHeader
	}

	token := strings.TrimSpace(raw[len(bearerPrefix):])
	if token == "" {
		return "", core.ErrInvalidAuthHeader
	}
	return token, nil
}

// principal authenticates the request. It is called after the body, if
// any, has been validated.
func (a *Adapter) principal(c fiber.Ctx) (core.Principal, error) {
	token, err := extractToken(c)
	if err != nil {
		a.recorder.ObserveAuth(authMissing)
		return core.Principal{}, err
	}

	p, err := a.g.Auth.Authenticate(c.Context(), token)
	switch {
	case err == nil:
		a.recorder.ObserveAuth(authOK)
	case errors.Is(err, core.ErrUnauthenticated):
		a.recorder.ObserveAuth(authRejected)
	default:
		a.recorder.ObserveAuth(authError)
	}
	return p, err
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, tok *core.IssuedToken) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    url.PathEscape(bearerPrefix + tok.Token),
		Path:     "/",
		Expires:  tok.ExpiresAt,
		Secure:   a.g.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// requestLog puts the request id on the context, renders any error the
// chain returns and logs one line per request.
func (a *Adapter) requestLog(c fiber.Ctx) error {
	start := time.Now()

	id := c.GetRespHeader(fiber.HeaderXRequestID)
	ctx := logging.WithRequestID(c.Context(), id)
	c.SetContext(ctx)

	if err := c.Next(); err != nil {
		if werr := writeError(c, a.logger, err); werr != nil {
			return werr
		}
	}

	status := c.Response().StatusCode()
	route := c.Route().Path
	elapsed := time.Since(start)

	a.recorder.ObserveRequest(c.Method(), route, status, elapsed)
	a.logger.InfoContext(ctx, "request",
		"method", c.Method(),
		"route", route,
		"status", status,
		"latency_ms", elapsed.Milliseconds(),
	)
	return nil
}
