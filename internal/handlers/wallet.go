package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jerryshell/eptrc/internal/services"
)

// WalletHandler manages wallet collection endpoints.
type WalletHandler struct {
	collection *services.CollectionService
}

func NewWalletHandler(collection *services.CollectionService) *WalletHandler {
	return &WalletHandler{collection: collection}
}

type walletCollectionRequest struct {
	ToAddress          string `json:"toAddress"`
	FeePayerPrivateKey string `json:"feePayerPrivateKey"`
}

// Collection sweeps all paid, uncollected deposit wallets to the treasury
// address given in the request.
func (h *WalletHandler) Collection(c *fiber.Ctx) error {
	var req walletCollectionRequest
	if err := c.BodyParser(&req); err != nil || req.ToAddress == "" || req.FeePayerPrivateKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.collection.Collect(c.Context(), req.ToAddress, req.FeePayerPrivateKey)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"collectionResults": results,
	})
}
