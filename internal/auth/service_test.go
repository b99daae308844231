package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MarziehKaviani/IranianPooshesh/internal/config"
	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
	"github.com/MarziehKaviani/IranianPooshesh/internal/logging"
	"github.com/MarziehKaviani/IranianPooshesh/internal/notification"
	"github.com/MarziehKaviani/IranianPooshesh/internal/otp"
	"github.com/MarziehKaviani/IranianPooshesh/internal/phone"
	"github.com/MarziehKaviani/IranianPooshesh/internal/response"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
)

type fixture struct {
	svc   *Service
	users *directory.MemoryRepository
	codes *otp.Store
	redis *miniredis.Miniredis
}

func setupService(t *testing.T) fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	countries, err := phone.LoadCountries()
	if err != nil {
		t.Fatalf("load countries: %v", err)
	}

	cfg := config.Config{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AnonSecret:      "anon-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		AnonTokenTTL:    30 * time.Minute,
	}

	logger := logging.Discard()
	users := directory.NewMemoryRepository()
	codes := otp.NewStore(cache, 2*time.Minute)
	svc := NewService(
		phone.NewValidator(countries),
		users,
		codes,
		token.NewIssuer(cfg),
		notification.NewLoggerSender(logger),
		logger,
	)

	return fixture{svc: svc, users: users, codes: codes, redis: mr}
}

// signUpAndIssue registers a user and issues a login code, returning the
// user and the code.
func (f fixture) signUpAndIssue(t *testing.T, phoneNumber, countryCode string) (directory.User, string) {
	t.Helper()
	ctx := context.Background()

	result, err := f.svc.SignUp(ctx, phoneNumber, countryCode)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if result.Status != response.UserRegistered {
		t.Fatalf("sign up status %s", result.Status)
	}

	user, err := f.users.FindByPhone(ctx, "+"+countryCode+phoneNumber)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	code, err := f.codes.IssueCode(ctx, user.ID, otp.PurposeLogin)
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	return user, code
}

func TestSignUp(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	result, err := f.svc.SignUp(ctx, "9123456789", "98")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if result.Status != response.UserRegistered {
		t.Fatalf("expected UserRegistered, got %s", result.Status)
	}

	user, err := f.users.FindByPhone(ctx, "+989123456789")
	if err != nil {
		t.Fatalf("expected user created: %v", err)
	}
	if user.State != directory.StatePending {
		t.Fatalf("expected pending state, got %s", user.State)
	}
}

func TestSignUpIsIdempotentRejecting(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.SignUp(ctx, "9123456789", "98"); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	result, err := f.svc.SignUp(ctx, "9123456789", "98")
	if err != nil {
		t.Fatalf("second sign up: %v", err)
	}
	if result.Status != response.UserAlreadyExists {
		t.Fatalf("expected UserAlreadyExists, got %s", result.Status)
	}
}

func TestSignUpValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	// Unknown country code fails before any store access.
	result, err := f.svc.SignUp(ctx, "9123456789", "99")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if result.Status != response.InvalidInputData {
		t.Fatalf("expected InvalidInputData, got %s", result.Status)
	}

	// Malformed home-country number carries the format hint.
	result, err = f.svc.SignUp(ctx, "1234", "98")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if result.Status != response.InvalidInputData {
		t.Fatalf("expected InvalidInputData, got %s", result.Status)
	}
	if result.Message == response.MsgInvalidInput {
		t.Fatalf("expected a format hint in the message, got %q", result.Message)
	}
}

func TestLoginHappyPath(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user, code := f.signUpAndIssue(t, "9123456789", "98")

	result, err := f.svc.Login(ctx, "9123456789", "98", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.Success {
		t.Fatalf("expected Success, got %s: %s", result.Status, result.Message)
	}
	pair, ok := result.Data.(token.Pair)
	if !ok || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair in result data, got %#v", result.Data)
	}

	// First successful login transitions the user to phone-verified.
	updated, err := f.users.FindByPhone(ctx, user.PhoneNumber)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if updated.State != directory.StatePhoneVerified {
		t.Fatalf("expected phone_verified, got %s", updated.State)
	}
}

func TestLoginConsumesCode(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	_, code := f.signUpAndIssue(t, "9123456789", "98")

	if result, _ := f.svc.Login(ctx, "9123456789", "98", code); result.Status != response.Success {
		t.Fatalf("first login failed: %s", result.Status)
	}

	// Replaying the same code must fail.
	result, err := f.svc.Login(ctx, "9123456789", "98", code)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if result.Status != response.InvalidLoginCredential {
		t.Fatalf("expected InvalidLoginCredential, got %s", result.Status)
	}
}

func TestLoginWrongCode(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	_, code := f.signUpAndIssue(t, "9123456789", "98")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	result, err := f.svc.Login(ctx, "9123456789", "98", wrong)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.InvalidLoginCredential {
		t.Fatalf("expected InvalidLoginCredential, got %s", result.Status)
	}

	// The stored code survives a failed comparison and still works.
	if result, _ := f.svc.Login(ctx, "9123456789", "98", code); result.Status != response.Success {
		t.Fatalf("expected retry with correct code to succeed, got %s", result.Status)
	}
}

func TestLoginExpiredCode(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	_, code := f.signUpAndIssue(t, "9123456789", "98")

	f.redis.FastForward(3 * time.Minute)

	result, err := f.svc.Login(ctx, "9123456789", "98", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.InvalidLoginCredential {
		t.Fatalf("expected expired code to read as InvalidLoginCredential, got %s", result.Status)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.Login(context.Background(), "9123456789", "98", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.UserNotFound {
		t.Fatalf("expected UserNotFound, got %s", result.Status)
	}
}

func TestLoginBlockedUser(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user, code := f.signUpAndIssue(t, "9123456789", "98")

	f.users.SetBlocked(user.PhoneNumber, true)

	result, err := f.svc.Login(ctx, "9123456789", "98", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.UserIsBlocked {
		t.Fatalf("expected UserIsBlocked even with correct code, got %s", result.Status)
	}

	// The block gate runs before the OTP store: the code is untouched.
	if _, err := f.codes.Fetch(ctx, user.ID, otp.PurposeLogin); err != nil {
		t.Fatalf("expected stored code to remain, got %v", err)
	}
}

func TestLoginStoreDown(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	_, code := f.signUpAndIssue(t, "9123456789", "98")

	f.redis.SetError("connection refused")

	result, err := f.svc.Login(ctx, "9123456789", "98", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != response.RedisIsDown {
		t.Fatalf("expected RedisIsDown, got %s", result.Status)
	}
	if result.Data != nil {
		t.Fatalf("no session may be issued while the store is down")
	}
}

func TestRequestCode(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.SignUp(ctx, "9123456789", "98"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	result, err := f.svc.RequestCode(ctx, "9123456789", "98")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if result.Status != response.Success {
		t.Fatalf("expected Success, got %s", result.Status)
	}

	user, err := f.users.FindByPhone(ctx, "+989123456789")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if _, err := f.codes.Fetch(ctx, user.ID, otp.PurposeLogin); err != nil {
		t.Fatalf("expected a stored code, got %v", err)
	}
}

func TestRequestCodeUnknownUser(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.RequestCode(context.Background(), "9123456789", "98")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if result.Status != response.UserNotFound {
		t.Fatalf("expected UserNotFound, got %s", result.Status)
	}
}

func TestRequestCodeStoreDown(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.SignUp(ctx, "9123456789", "98"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	f.redis.SetError("connection refused")

	result, err := f.svc.RequestCode(ctx, "9123456789", "98")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if result.Status != response.RedisIsDown {
		t.Fatalf("expected RedisIsDown, got %s", result.Status)
	}
}
