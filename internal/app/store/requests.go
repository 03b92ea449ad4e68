package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swapyard/internal/app/db"
	"swapyard/internal/app/market"
)

// CreatePurchaseRequest opens a pending request for (product, buyer). The
// partial unique index on pending requests makes a second open attempt fail,
// surfaced as market.ErrDuplicate.
func (s *Store) CreatePurchaseRequest(ctx context.Context, productID, buyerID int64) (market.PurchaseRequest, error) {
	var r market.PurchaseRequest
	err := s.pool.QueryRow(ctx, `
		INSERT INTO purchase_requests (product_id, buyer_id)
		VALUES ($1, $2)
		RETURNING id, product_id, buyer_id, status, created_at`,
		productID, buyerID,
	).Scan(&r.ID, &r.ProductID, &r.BuyerID, &r.Status, &r.CreatedAt)
	if db.IsUniqueViolation(err) {
		return market.PurchaseRequest{}, market.ErrDuplicate
	}
	if err != nil {
		return market.PurchaseRequest{}, fmt.Errorf("create purchase request: %w", err)
	}
	return r, nil
}

// AcceptPurchaseRequest resolves a pending request to accepted and creates
// the chat for it, all in one transaction. The conditional UPDATE on the
// pending status is the single authoritative transition: a request that was
// already accepted or declined yields market.ErrAlreadyResolved, so duplicate
// accepts can never create a second chat.
func (s *Store) AcceptPurchaseRequest(ctx context.Context, productID, buyerID, sellerID int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var requestID int64
	err = tx.QueryRow(ctx, `
		UPDATE purchase_requests
		SET status = $3, resolved_at = now()
		WHERE product_id = $1 AND buyer_id = $2 AND status = $4
		RETURNING id`,
		productID, buyerID, market.RequestAccepted, market.RequestPending,
	).Scan(&requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, market.ErrAlreadyResolved
	}
	if err != nil {
		return 0, fmt.Errorf("accept purchase request: %w", err)
	}

	var chatID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO chats (product_id) VALUES ($1) RETURNING id`, productID,
	).Scan(&chatID); err != nil {
		return 0, fmt.Errorf("create chat: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2), ($1, $3)`,
		chatID, sellerID, buyerID); err != nil {
		return 0, fmt.Errorf("add chat participants: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_requests SET chat_id = $2 WHERE id = $1`,
		requestID, chatID); err != nil {
		return 0, fmt.Errorf("link chat to request: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET buyer_id = $2 WHERE id = $1`,
		productID, buyerID); err != nil {
		return 0, fmt.Errorf("record buyer on product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit accept tx: %w", err)
	}

	return chatID, nil
}

// DeclinePurchaseRequest resolves a pending request to declined. A request
// that is not pending yields market.ErrAlreadyResolved.
func (s *Store) DeclinePurchaseRequest(ctx context.Context, productID, buyerID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE purchase_requests
		SET status = $3, resolved_at = now()
		WHERE product_id = $1 AND buyer_id = $2 AND status = $4`,
		productID, buyerID, market.RequestDeclined, market.RequestPending)
	if err != nil {
		return fmt.Errorf("decline purchase request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrAlreadyResolved
	}
	return nil
}
