package tokens

import (
	toksvc "carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/application/treasury"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Tokens   *toksvc.Service
	Treasury *treasury.Ledger
}

// GET /api/v1/tokens/:account: token balance plus settlement currency paid out.
func (h *Handlers) Balance(c *fiber.Ctx) error {
	account := c.Params("account")
	ctx := c.UserContext()
	bal, err := h.Tokens.Balance(ctx, account)
	if err != nil {
		return response.FromError(c, err)
	}
	paid, err := h.Treasury.Balance(ctx, account)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Balance retrieved", fiber.Map{
		"account":          account,
		"token_balance":    bal,
		"currency_balance": paid,
	}, fiber.Map{"units_per_credit": h.Tokens.Ledger.UnitsPerCredit()})
}
