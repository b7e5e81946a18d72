package jwt

import "github.com/golang-jwt/jwt"

// ScopeWrite grants permission to upload, delete and copy files.
const ScopeWrite = "files:write"

// Payload defines the claims of the bearer tokens accepted by the file service.
type Payload struct {
	// StandardClaims carries exp, iat and iss at the top level of the token, checked during parsing.
	jwt.StandardClaims

	// ID identifies the caller (a user, a service account) in logs.
	ID string `json:"id"`

	// Scopes lists the permissions granted to the caller.
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the payload grants scope.
func (p *Payload) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
