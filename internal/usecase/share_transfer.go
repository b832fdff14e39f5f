package usecase

import (
	"context"

	"github.com/iho/stockroyale/internal/domain"
)

// ShareTransferEngine moves shares from the public float or a seller to a buyer.
// It must run inside the caller's transaction.
type ShareTransferEngine struct {
	stockRepo     StockRepository
	ownershipRepo OwnershipRepository
}

// NewShareTransferEngine creates a new ShareTransferEngine.
func NewShareTransferEngine(stockRepo StockRepository, ownershipRepo OwnershipRepository) *ShareTransferEngine {
	return &ShareTransferEngine{
		stockRepo:     stockRepo,
		ownershipRepo: ownershipRepo,
	}
}

// Transfer moves amount shares of stockID to buyerID from source.
func (e *ShareTransferEngine) Transfer(
	ctx context.Context,
	tx Transaction,
	stockID, buyerID string,
	amount int64,
	source domain.ShareSource,
) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	if buyerID == "" || stockID == "" {
		return domain.ErrMissingReference
	}

	if err := source.Validate(); err != nil {
		return err
	}

	if !source.IsIssuer() && source.SellerID() == buyerID {
		return domain.ErrSelfTrade
	}

	stock, err := e.stockRepo.GetByIDForUpdate(ctx, tx, stockID)
	if err != nil {
		return err
	}

	if err := stock.ValidateTradable(); err != nil {
		return err
	}

	if source.IsIssuer() {
		if err := stock.ValidateIssue(amount); err != nil {
			return err
		}

		stock.PublicFloat -= amount
		if err := e.stockRepo.Update(ctx, tx, stock); err != nil {
			return err
		}
	} else {
		seller, err := e.ownershipRepo.GetForUpdate(ctx, tx, source.SellerID(), stockID)
		if err != nil {
			return err
		}

		if err := seller.ValidateWithdraw(amount); err != nil {
			return err
		}

		seller.Amount -= amount
		if err := e.ownershipRepo.Set(ctx, tx, seller); err != nil {
			return err
		}
	}

	buyer, err := e.ownershipRepo.GetForUpdate(ctx, tx, buyerID, stockID)
	if err != nil {
		return err
	}

	buyer.Amount += amount

	return e.ownershipRepo.Set(ctx, tx, buyer)
}
