package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jerryshell/eptrc/internal/services"
)

// PaymentSessionHandler manages payment session endpoints.
type PaymentSessionHandler struct {
	sessions *services.SessionService
}

func NewPaymentSessionHandler(sessions *services.SessionService) *PaymentSessionHandler {
	return &PaymentSessionHandler{sessions: sessions}
}

type paymentSessionCreateRequest struct {
	Metadata  *string `json:"metadata"`
	NotifyURL string  `json:"notifyUrl"`
}

type paymentSessionDetailRequest struct {
	PaymentSessionID string `json:"paymentSessionId"`
}

// Create allocates a deposit wallet and a pending payment session.
func (h *PaymentSessionHandler) Create(c *fiber.Ctx) error {
	var req paymentSessionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if parsed, err := url.ParseRequestURI(req.NotifyURL); err != nil || parsed.Host == "" {
		return fiber.NewError(fiber.StatusBadRequest, "notifyUrl must be a valid URL")
	}

	session, err := h.sessions.Create(c.Context(), req.Metadata, req.NotifyURL)
	if err != nil {
		return writeCodeError(c, err)
	}

	return c.JSON(fiber.Map{
		"paymentSessionId": session.ID,
		"address":          session.Address,
		"expiresAt":        session.ExpiresAt,
	})
}

// Detail returns the full session record.
func (h *PaymentSessionHandler) Detail(c *fiber.Ctx) error {
	var req paymentSessionDetailRequest
	if err := c.BodyParser(&req); err != nil || req.PaymentSessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.sessions.Detail(c.Context(), req.PaymentSessionID)
	if err != nil {
		return writeCodeError(c, err)
	}

	return c.JSON(session)
}

// writeCodeError maps service errors to the {code} wire format.
func writeCodeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": services.ErrSessionNotFound.Error(),
		})
	case errors.Is(err, services.ErrWalletCreateFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": services.ErrWalletCreateFailed.Error(),
		})
	case errors.Is(err, services.ErrSessionCreateFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": services.ErrSessionCreateFailed.Error(),
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
