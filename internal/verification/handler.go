package verification

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/response"
)

// Handler exposes the personal-info verification endpoints. All routes sit
// behind session authentication; the user identity comes from locals.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the verification handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type submitRequest struct {
	NationalCode string `json:"national_code" validate:"required,numeric,len=10"`
	BirthDate    string `json:"birth_date" validate:"required"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
}

type confirmRequest struct {
	ConfirmationToken string `json:"confirmation_token" validate:"required,max=10"`
}

// Submit parks the submitted personal info as a pending preview.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadInput(c, "", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return response.BadInput(c, "", nil)
	}

	userID, _ := c.Locals("user_id").(string)
	phoneNumber, _ := c.Locals("phone_number").(string)

	confirmToken, err := h.svc.Submit(c.UserContext(), userID, phoneNumber, req.NationalCode, PersonalInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return response.Send(c, http.StatusOK, response.RedisIsDown, response.MsgTryAgainLater, nil)
		}
		return err
	}
	return response.Send(c, http.StatusOK, response.Success, "Personal info stored for confirmation", fiber.Map{
		"confirmation_token": confirmToken,
	})
}

// Preview returns the pending personal info, if any.
func (h *Handler) Preview(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	info, err := h.svc.Preview(c.UserContext(), userID)
	switch {
	case errors.Is(err, ErrNoPreview):
		return response.Send(c, http.StatusOK, response.Success, "No pending preview", nil)
	case errors.Is(err, ErrStoreUnavailable):
		return response.Send(c, http.StatusOK, response.RedisIsDown, response.MsgTryAgainLater, nil)
	case err != nil:
		return err
	}
	return response.Send(c, http.StatusOK, response.Success, "Pending personal info", info)
}

// Confirm finalizes the pending preview into the profile.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadInput(c, "", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return response.BadInput(c, "", nil)
	}

	userID, _ := c.Locals("user_id").(string)

	err := h.svc.Confirm(c.UserContext(), userID, req.ConfirmationToken)
	switch {
	case errors.Is(err, ErrNoPreview), errors.Is(err, ErrInvalidToken):
		return response.BadInput(c, err.Error(), nil)
	case errors.Is(err, ErrStoreUnavailable):
		return response.Send(c, http.StatusOK, response.RedisIsDown, response.MsgTryAgainLater, nil)
	case err != nil:
		return err
	}
	return response.Send(c, http.StatusOK, response.Success, "Personal info verified", nil)
}
