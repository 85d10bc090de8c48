package middleware

import "github.com/labstack/echo/v4"

// Echo context keys populated by the authentication middleware.
const (
	ContextUserEmail = "user_email"
	ContextUserRole  = "role"
)

// Identity is the authenticated caller as seen by the HTTP layer.
type Identity struct {
	Email string
	Role  string
}

func SetIdentity(c echo.Context, id Identity) {
	c.Set(ContextUserEmail, id.Email)
	c.Set(ContextUserRole, id.Role)
}

// IdentityFrom reports false when no authentication middleware ran or the
// caller carried no email.
func IdentityFrom(c echo.Context) (Identity, bool) {
	email, _ := c.Get(ContextUserEmail).(string)
	role, _ := c.Get(ContextUserRole).(string)
	if email == "" {
		return Identity{}, false
	}
	return Identity{Email: email, Role: role}, true
}
