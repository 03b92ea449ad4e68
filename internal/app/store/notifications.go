package store

import (
	"context"
	"fmt"

	"swapyard/internal/app/market"
)

// CreateNotification persists a notification so purchase requests survive the
// recipient being offline.
func (s *Store) CreateNotification(ctx context.Context, in market.NewNotification) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, kind, product_id, product_name, buyer_id, buyer_username)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		in.UserID, in.Kind, in.ProductID, in.ProductName, in.BuyerID, in.BuyerUsername,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	return id, nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64) ([]market.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, kind, product_id, product_name, buyer_id, buyer_username, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]market.Notification, 0)
	for rows.Next() {
		var n market.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.ProductID, &n.ProductName,
			&n.BuyerID, &n.BuyerUsername, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}
