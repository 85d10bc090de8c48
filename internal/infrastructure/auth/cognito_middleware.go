package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"admin-rbac/internal/adapters/http/middleware"
)

// CognitoMiddleware verifies Cognito ID tokens and stores the caller identity
// on the echo context.
type CognitoMiddleware struct {
	issuer string
	keys   *keyFetcher
}

func NewCognitoMiddleware(userPoolID, region string) *CognitoMiddleware {
	issuer := "https://cognito-idp." + region + ".amazonaws.com/" + userPoolID
	return newCognitoMiddleware(issuer, issuer+"/.well-known/jwks.json")
}

func newCognitoMiddleware(issuer, jwksURL string) *CognitoMiddleware {
	return &CognitoMiddleware{
		issuer: issuer,
		keys:   newKeyFetcher(jwksURL, 15*time.Minute),
	}
}

// identityFromClaims reads the caller email and role. The role comes from
// custom:role, falling back to the first Cognito group.
func identityFromClaims(claims jwt.MapClaims) (middleware.Identity, bool) {
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return middleware.Identity{}, false
	}
	role, _ := claims["custom:role"].(string)
	if strings.TrimSpace(role) == "" {
		if groups, ok := claims["cognito:groups"].([]any); ok && len(groups) > 0 {
			role, _ = groups[0].(string)
		}
	}
	return middleware.Identity{Email: email, Role: strings.TrimSpace(role)}, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (m *CognitoMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(echo.HeaderAuthorization)
		if raw == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization token"})
		}
		tokenString, ok := bearerToken(raw)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization token"})
		}
		ctx := c.Request().Context()
		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token header carries no kid")
			}
			return m.keys.Key(ctx, kid)
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		id, ok := identityFromClaims(claims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token carries no email claim"})
		}
		if sub, _ := claims["sub"].(string); sub != "" {
			c.Set("user_id", sub)
		}
		middleware.SetIdentity(c, id)
		return next(c)
	}
}
