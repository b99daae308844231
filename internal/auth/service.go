package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
	"github.com/MarziehKaviani/IranianPooshesh/internal/notification"
	"github.com/MarziehKaviani/IranianPooshesh/internal/otp"
	"github.com/MarziehKaviani/IranianPooshesh/internal/phone"
	"github.com/MarziehKaviani/IranianPooshesh/internal/response"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
)

// Result is a terminal outcome of a signup/login flow. Business failures are
// results, not errors; an error return means something unclassified broke.
type Result struct {
	Status  response.BusinessStatus
	Message string
	Data    any
}

// Service orchestrates the signup and login flows over the phone validator,
// the user directory, the code store and the token issuer.
type Service struct {
	validator *phone.Validator
	users     directory.Repository
	codes     *otp.Store
	issuer    *token.Issuer
	sms       notification.Sender
	logger    *slog.Logger
}

// NewService wires the auth service.
func NewService(validator *phone.Validator, users directory.Repository, codes *otp.Store, issuer *token.Issuer, sms notification.Sender, logger *slog.Logger) *Service {
	return &Service{
		validator: validator,
		users:     users,
		codes:     codes,
		issuer:    issuer,
		sms:       sms,
		logger:    logger,
	}
}

// SignUp registers a new pending user under the normalized phone number.
func (s *Service) SignUp(ctx context.Context, phoneNumber, countryCode string) (Result, error) {
	normalized, failed := s.validatePhone(phoneNumber, countryCode)
	if failed != nil {
		return *failed, nil
	}

	_, err := s.users.FindByPhone(ctx, normalized)
	switch {
	case err == nil:
		return Result{Status: response.UserAlreadyExists, Message: response.MsgUserAlreadyExists}, nil
	case !errors.Is(err, directory.ErrNotFound):
		return Result{}, fmt.Errorf("lookup user: %w", err)
	}

	user, err := s.users.CreatePending(ctx, normalized)
	if err != nil {
		// The unique index backstops the lookup above under concurrency.
		if errors.Is(err, directory.ErrAlreadyExists) {
			return Result{Status: response.UserAlreadyExists, Message: response.MsgUserAlreadyExists}, nil
		}
		return Result{}, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "phone_number", user.PhoneNumber)
	return Result{Status: response.UserRegistered, Message: response.MsgUserRegistered}, nil
}

// RequestCode issues a login verification code for an existing user and
// hands it to the SMS sender. Reissuing overwrites the previous code.
func (s *Service) RequestCode(ctx context.Context, phoneNumber, countryCode string) (Result, error) {
	normalized, failed := s.validatePhone(phoneNumber, countryCode)
	if failed != nil {
		return *failed, nil
	}

	user, res, err := s.findForLogin(ctx, normalized)
	if res != nil || err != nil {
		return deref(res), err
	}

	code, err := s.codes.IssueCode(ctx, user.ID, otp.PurposeLogin)
	if err != nil {
		if errors.Is(err, otp.ErrStoreUnavailable) {
			return Result{Status: response.RedisIsDown, Message: response.MsgTryAgainLater}, nil
		}
		return Result{}, err
	}

	if err := s.sms.Send(ctx, notification.Message{
		PhoneNumber: user.PhoneNumber,
		Body:        notification.VerificationCodeBody(code),
	}); err != nil {
		return Result{}, fmt.Errorf("send verification code: %w", err)
	}

	return Result{Status: response.Success, Message: "Verification code sent"}, nil
}

// Login verifies the submitted code against the stored one, consumes it and
// issues a session token pair.
func (s *Service) Login(ctx context.Context, phoneNumber, countryCode, verificationCode string) (Result, error) {
	normalized, failed := s.validatePhone(phoneNumber, countryCode)
	if failed != nil {
		return *failed, nil
	}

	user, res, err := s.findForLogin(ctx, normalized)
	if res != nil || err != nil {
		return deref(res), err
	}

	stored, err := s.codes.Fetch(ctx, user.ID, otp.PurposeLogin)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrStoreUnavailable):
			return Result{Status: response.RedisIsDown, Message: response.MsgTryAgainLater}, nil
		case errors.Is(err, otp.ErrNotFound):
			// An expired or never-issued code is indistinguishable from a
			// wrong one.
			return Result{Status: response.InvalidLoginCredential, Message: response.MsgInvalidOTP}, nil
		}
		return Result{}, err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(verificationCode)) != 1 {
		return Result{Status: response.InvalidLoginCredential, Message: response.MsgInvalidOTP}, nil
	}

	consumed, err := s.codes.Consume(ctx, user.ID, otp.PurposeLogin)
	if err != nil {
		// Verification matched but consumption is unconfirmed: without a
		// durable remove the code could be replayed, so no session yet.
		return Result{Status: response.RedisIsDown, Message: response.MsgTryAgainLater}, nil
	}
	if !consumed {
		// A concurrent login or TTL expiry got there first.
		return Result{Status: response.InvalidLoginCredential, Message: response.MsgInvalidOTP}, nil
	}

	if user.State == directory.StatePending {
		user, err = s.users.MarkVerified(ctx, user.ID)
		if err != nil {
			return Result{}, fmt.Errorf("mark verified: %w", err)
		}
	}

	pair, err := s.issuer.IssueSession(user)
	if err != nil {
		return Result{}, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return Result{Status: response.Success, Message: response.MsgUserLoggedIn, Data: pair}, nil
}

// validatePhone runs the country and shape checks and returns the normalized
// number, or the terminal input-failure result.
func (s *Service) validatePhone(phoneNumber, countryCode string) (string, *Result) {
	if !s.validator.ValidateCountryCode(countryCode) {
		return "", &Result{Status: response.InvalidInputData, Message: response.MsgInvalidInput}
	}
	normalized, err := s.validator.Normalize(phoneNumber, countryCode)
	if err != nil {
		return "", &Result{Status: response.InvalidInputData, Message: err.Error()}
	}
	return normalized, nil
}

// findForLogin resolves the user and applies the existence and block gates.
// Soft-deleted users are reported as not found.
func (s *Service) findForLogin(ctx context.Context, normalized string) (directory.User, *Result, error) {
	user, err := s.users.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.User{}, &Result{Status: response.UserNotFound, Message: response.MsgUserNotFound}, nil
		}
		return directory.User{}, nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.State == directory.StateDeleted {
		return directory.User{}, &Result{Status: response.UserNotFound, Message: response.MsgUserNotFound}, nil
	}
	if user.IsBlocked || !user.IsActive {
		return directory.User{}, &Result{Status: response.UserIsBlocked, Message: response.MsgBlockedUser}, nil
	}
	return user, nil, nil
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}
