package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/config"
	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
)

func testIssuer() *token.Issuer {
	return token.NewIssuer(config.Config{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AnonSecret:      "anon-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		AnonTokenTTL:    30 * time.Minute,
	})
}

func sessionToken(t *testing.T, issuer *token.Issuer) string {
	t.Helper()
	pair, err := issuer.IssueSession(directory.User{
		ID:          "user-1",
		PhoneNumber: "+989123456789",
		State:       directory.StatePhoneVerified,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return pair.AccessToken
}

func gateApp(issuer *token.Issuer) *fiber.App {
	app := fiber.New()
	app.Get("/pre-auth", AnonymousGate(issuer), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/protected", RequireUser(issuer), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		return c.SendString(uid)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, path, bearer string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestAnonymousGateAllowsNoCredential(t *testing.T) {
	issuer := testIssuer()
	app := gateApp(issuer)

	if status := doGet(t, app, "/pre-auth", ""); status != fiber.StatusOK {
		t.Fatalf("expected 200 without credential, got %d", status)
	}
}

func TestAnonymousGateAllowsAnonymousToken(t *testing.T) {
	issuer := testIssuer()
	app := gateApp(issuer)

	anon, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("issue anonymous: %v", err)
	}
	if status := doGet(t, app, "/pre-auth", anon); status != fiber.StatusOK {
		t.Fatalf("expected 200 with anonymous token, got %d", status)
	}
}

func TestAnonymousGateRejectsSessionToken(t *testing.T) {
	issuer := testIssuer()
	app := gateApp(issuer)

	if status := doGet(t, app, "/pre-auth", sessionToken(t, issuer)); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 with session token, got %d", status)
	}
}

func TestAnonymousGateRejectsGarbage(t *testing.T) {
	issuer := testIssuer()
	app := gateApp(issuer)

	if status := doGet(t, app, "/pre-auth", "not-a-token"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", status)
	}
}

func TestRequireUser(t *testing.T) {
	issuer := testIssuer()
	app := gateApp(issuer)

	if status := doGet(t, app, "/protected", ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without credential, got %d", status)
	}

	anon, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("issue anonymous: %v", err)
	}
	if status := doGet(t, app, "/protected", anon); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 with anonymous token, got %d", status)
	}

	if status := doGet(t, app, "/protected", sessionToken(t, issuer)); status != fiber.StatusOK {
		t.Fatalf("expected 200 with session token, got %d", status)
	}
}
