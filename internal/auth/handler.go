package auth

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/response"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
)

// Handler exposes the signup/login/logout endpoints.
type Handler struct {
	svc      *Service
	issuer   *token.Issuer
	validate *validator.Validate
}

// NewHandler builds the auth handler.
func NewHandler(svc *Service, issuer *token.Issuer) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, issuer: issuer, validate: v}
}

type signUpRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	CountryCode string `json:"country_code" validate:"required,numeric"`
}

type loginRequest struct {
	PhoneNumber      string `json:"phone_number" validate:"required"`
	CountryCode      string `json:"country_code" validate:"required,numeric"`
	VerificationCode string `json:"verification_code" validate:"required,numeric"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SignUp registers a new user in the pending state.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if failed := h.bind(c, &req); failed != nil {
		return failed
	}

	result, err := h.svc.SignUp(c.UserContext(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		return err
	}
	return sendResult(c, result)
}

// RequestCode issues a login verification code for an existing user.
func (h *Handler) RequestCode(c *fiber.Ctx) error {
	var req signUpRequest
	if failed := h.bind(c, &req); failed != nil {
		return failed
	}

	result, err := h.svc.RequestCode(c.UserContext(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		return err
	}
	return sendResult(c, result)
}

// Login verifies the submitted code and returns a session token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if failed := h.bind(c, &req); failed != nil {
		return failed
	}

	result, err := h.svc.Login(c.UserContext(), req.PhoneNumber, req.CountryCode, req.VerificationCode)
	if err != nil {
		return err
	}
	return sendResult(c, result)
}

// Logout acknowledges the logout. Tokens are stateless and simply expire;
// the authentication requirement is enforced by middleware.
func (h *Handler) Logout(c *fiber.Ctx) error {
	return response.Send(c, http.StatusOK, response.Success, response.MsgUserLoggedOut, nil)
}

// GenerateAnonymousToken mints a pre-auth bearer token. The gate middleware
// rejects callers that are already authenticated.
func (h *Handler) GenerateAnonymousToken(c *fiber.Ctx) error {
	tok, err := h.issuer.IssueAnonymous()
	if err != nil {
		return err
	}
	return response.Send(c, http.StatusOK, response.Success, response.MsgAnonTokenCreated, tok)
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if failed := h.bind(c, &req); failed != nil {
		return failed
	}

	access, expiresIn, err := h.issuer.Refresh(req.RefreshToken)
	if err != nil {
		return response.Send(c, http.StatusUnauthorized, response.UserDontHaveAccess, "Invalid refresh token", nil)
	}
	return response.Send(c, http.StatusOK, response.Success, "Token refreshed", fiber.Map{
		"access_token": access,
		"expires_in":   expiresIn,
	})
}

// bind parses and validates the request body, writing the input-failure
// envelope itself when the body is unusable.
func (h *Handler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return response.BadInput(c, "", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, response.Label(fe.Field()))
			}
		}
		return response.BadInput(c, "", fiber.Map{"missing_or_invalid": fields})
	}
	return nil
}

// sendResult maps a business outcome onto the transport: input failures are
// 400, a fresh registration is 201, every other terminal outcome rides a 200.
func sendResult(c *fiber.Ctx, result Result) error {
	status := http.StatusOK
	switch result.Status {
	case response.InvalidInputData:
		status = http.StatusBadRequest
	case response.UserRegistered:
		status = http.StatusCreated
	}
	return response.Send(c, status, result.Status, result.Message, result.Data)
}
