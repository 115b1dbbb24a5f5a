package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - agent role requires a non-empty agent_id; without it the JWT is
//     structurally valid but operationally unusable — reject with 401.
func ctxClaims(c echo.Context) (role, agentID string, err error) {
	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	agentID, _ = c.Get("agent_id").(string)
	if role == domain.RoleAgent && agentID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing agent identity")
	}

	return role, agentID, nil
}
