// Package auth decodes identity tokens issued by the Cognito user pool and
// persists the session between runs. Tokens are parsed without signature
// verification: the gateway verifies them on every request, the client only
// needs the claims to render the UI.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of ID-token claims the client uses.
type Claims struct {
	Username string
	Email    string
	IsAdmin  bool
}

// ParseToken decodes the claims from a raw JWT. Admin status comes from an
// explicit isAdmin boolean claim when present, otherwise from membership in
// the "admin" Cognito group. A token that does not decode returns an error;
// a token that decodes but carries neither claim yields IsAdmin false.
func ParseToken(raw string) (Claims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}

	var c Claims
	c.Username = stringClaim(claims, "cognito:username")
	if c.Username == "" {
		c.Username = stringClaim(claims, "username")
	}
	c.Email = stringClaim(claims, "email")

	if v, ok := claims["isAdmin"]; ok {
		c.IsAdmin = boolClaim(v)
		return c, nil
	}
	if groups, ok := claims["cognito:groups"].([]any); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok && s == "admin" {
				c.IsAdmin = true
				break
			}
		}
	}
	return c, nil
}

func stringClaim(m jwt.MapClaims, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolClaim(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}
