package response

import (
	"github.com/gofiber/fiber/v2"
)

// BusinessStatus is the domain-level outcome code carried by every envelope,
// independent of the HTTP transport status.
type BusinessStatus string

const (
	Success                BusinessStatus = "SUCCESS"
	InvalidInputData       BusinessStatus = "INVALID_INPUT_DATA"
	UserAlreadyExists      BusinessStatus = "USER_ALREADY_EXISTS"
	UserRegistered         BusinessStatus = "USER_REGISTERED"
	UserNotFound           BusinessStatus = "USER_NOT_FOUND"
	UserIsBlocked          BusinessStatus = "USER_IS_BLOCKED"
	RedisIsDown            BusinessStatus = "REDIS_IS_DOWN"
	InvalidLoginCredential BusinessStatus = "INVALID_LOGIN_CREDENTIAL"
	UserDontHaveAccess     BusinessStatus = "USER_DONT_HAVE_ACCESS"
	UserLoggedIn           BusinessStatus = "USER_LOGGED_IN"
	UserLoggedOut          BusinessStatus = "USER_LOGGED_OUT"
	InternalError          BusinessStatus = "INTERNAL_ERROR"
)

// Common envelope messages.
const (
	MsgInvalidInput       = "Invalid input data"
	MsgUserAlreadyExists  = "User already exists"
	MsgUserRegistered     = "User registered"
	MsgUserNotFound       = "User does not exist"
	MsgBlockedUser        = "User is blocked"
	MsgTryAgainLater      = "Something went wrong, please try again later"
	MsgInvalidOTP         = "Invalid verification code"
	MsgUserLoggedIn       = "User logged in"
	MsgUserLoggedOut      = "User logged out"
	MsgMustBeAnonymous    = "Already authenticated"
	MsgAnonTokenCreated   = "Anonymous token created"
	MsgMustBeAuthenticated = "Authentication required"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Data               any            `json:"data"`
	Message            string         `json:"message"`
	IsException        bool           `json:"is_exception"`
	HTTPStatusCode     int            `json:"http_status_code"`
	BusinessStatusCode BusinessStatus `json:"business_status_code"`
}

// fieldLabels maps request field keys to their display labels. Resolved
// statically at response construction, never via reflection.
var fieldLabels = map[string]string{
	"phone_number":      "Phone number",
	"country_code":      "Country code",
	"verification_code": "Verification code",
	"refresh_token":     "Refresh token",
	"national_code":     "National code",
	"birth_date":        "Birth date",
	"first_name":        "First name",
	"last_name":         "Last name",
}

// Label resolves the display label for a request field key, falling back to
// the key itself.
func Label(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// ok reports whether the status is a success outcome, which drives the
// is_exception flag of the envelope.
func (s BusinessStatus) ok() bool {
	switch s {
	case Success, UserRegistered, UserLoggedIn, UserLoggedOut:
		return true
	}
	return false
}

// Send writes the envelope with matching transport and embedded status codes.
func Send(c *fiber.Ctx, httpStatus int, business BusinessStatus, message string, data any) error {
	return c.Status(httpStatus).JSON(Envelope{
		Data:               data,
		Message:            message,
		IsException:        !business.ok(),
		HTTPStatusCode:     httpStatus,
		BusinessStatusCode: business,
	})
}

// BadInput is the canonical rejection for missing or malformed request fields.
func BadInput(c *fiber.Ctx, message string, data any) error {
	if message == "" {
		message = MsgInvalidInput
	}
	return Send(c, fiber.StatusBadRequest, InvalidInputData, message, data)
}
