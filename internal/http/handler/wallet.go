package handler

import (
	"github.com/gofiber/fiber/v2"

	"notaryapi/internal/model"
	"notaryapi/internal/service"
)

// GetWallet handles GET /userWallet/wallet.
func GetWallet(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := actorFromCtx(c)
		res, err := svc.GetWallet(c.UserContext(), userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// AddWalletNFT handles POST /userWallet/wallet/add.
func AddWalletNFT(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body model.WalletItem
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := actorFromCtx(c)
		body.UserID = userID
		item, err := svc.AddNFT(c.UserContext(), &body)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// TransferNFT handles POST /userWallet/wallet/transfer.
func TransferNFT(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			RecipientEmail string `json:"recipient_email"`
			MintAddress    string `json:"mint_address"`
			Amount         int64  `json:"amount"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := actorFromCtx(c)
		err := svc.Transfer(c.UserContext(), service.TransferParams{
			FromUserID:     userID,
			RecipientEmail: body.RecipientEmail,
			MintAddress:    body.MintAddress,
			Amount:         body.Amount,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "transferred"})
	}
}

// DecreaseWalletAmounts handles POST /userWallet/wallet/decrease.
func DecreaseWalletAmounts(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			ItemIDs []string `json:"item_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := actorFromCtx(c)
		if err := svc.DecreaseAmounts(c.UserContext(), userID, body.ItemIDs); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "decreased"})
	}
}

// GetNFTMetadata handles GET /nft/metadata/:mintAddress. Public: NFTs are
// on-chain objects, so their metadata links are not gated on a login.
func GetNFTMetadata(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.NFTMetadata(c.UserContext(), c.Params("mintAddress"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// PurchaseWalletItem handles POST /userWallet/wallet/purchase.
func PurchaseWalletItem(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			ItemID string `json:"item_id"`
			Amount int64  `json:"amount"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := actorFromCtx(c)
		pay, err := svc.Purchase(c.UserContext(), userID, body.ItemID, body.Amount)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(pay)
	}
}
