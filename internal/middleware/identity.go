package middleware

// identity.go holds the accessors for the identity JWTAuth stores in the
// Echo context and the subject access rule shared by every telemetry route.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
)

func ctxString(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}

// UserID returns the authenticated account id, or "" when anonymous.
func UserID(c echo.Context) string { return ctxString(c, CtxUserID) }

// Role returns the authenticated role, or "".
func Role(c echo.Context) string { return ctxString(c, CtxRole) }

// AstronautID returns the subject the authenticated account owns.
func AstronautID(c echo.Context) string { return ctxString(c, CtxAstronautID) }

// CanAccessSubject reports whether the caller may read or write subject's
// records.  Astronauts are limited to their own subject; supervisor and
// medical accounts see the whole crew.
func CanAccessSubject(c echo.Context, subject string) bool {
	switch Role(c) {
	case model.RoleSupervisor, model.RoleMedical:
		return true
	case model.RoleAstronaut:
		return subject != "" && subject == AstronautID(c)
	}
	return false
}

// RequireSubjectParam guards routes whose path carries the subject id in
// the named parameter.
func RequireSubjectParam(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CanAccessSubject(c, c.Param(param)) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// rateKeyUser identifies the caller for rate limiting.
func rateKeyUser(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
