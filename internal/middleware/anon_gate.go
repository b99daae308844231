package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/response"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
)

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialAnonymous
	credentialSession
	credentialInvalid
)

// classifyCredential inspects the bearer token, if any, and reports what the
// caller presented. The gate decisions below are pure predicates over this.
func classifyCredential(c *fiber.Ctx, issuer *token.Issuer) (credentialKind, token.Identity) {
	authz := c.Get(fiber.HeaderAuthorization)
	if authz == "" {
		return credentialNone, token.Identity{}
	}
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return credentialInvalid, token.Identity{}
	}
	raw := strings.TrimSpace(authz[len("Bearer "):])

	if identity, err := issuer.ParseAccess(raw); err == nil {
		return credentialSession, identity
	}
	if err := issuer.ParseAnonymous(raw); err == nil {
		return credentialAnonymous, token.Identity{}
	}
	return credentialInvalid, token.Identity{}
}

// AnonymousGate admits pre-authentication requests: callers with no
// credential or a valid anonymous token pass, a full session token is
// rejected. Serves both the pre-auth endpoints and anonymous-token issuance,
// which must not be reachable by a logged-in user.
func AnonymousGate(issuer *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch kind, _ := classifyCredential(c, issuer); kind {
		case credentialNone, credentialAnonymous:
			return c.Next()
		case credentialSession:
			return response.Send(c, http.StatusBadRequest, response.UserDontHaveAccess, response.MsgMustBeAnonymous, nil)
		default:
			return response.Send(c, http.StatusUnauthorized, response.UserDontHaveAccess, "Invalid token", nil)
		}
	}
}

// RequireUser admits only callers holding a valid session access token and
// exposes the token identity via locals.
func RequireUser(issuer *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, identity := classifyCredential(c, issuer)
		if kind != credentialSession {
			return response.Send(c, http.StatusBadRequest, response.UserDontHaveAccess, response.MsgMustBeAuthenticated, nil)
		}
		c.Locals("user_id", identity.UserID)
		c.Locals("phone_number", identity.PhoneNumber)
		return c.Next()
	}
}
