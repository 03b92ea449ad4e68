package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swapyard/internal/app/market"
)

const productColumns = `
	p.id, p.name, p.photos, p.category, p.condition, p.price, p.status,
	p.pickup_status, p.address, p.created_at, COALESCE(p.buyer_id, 0),
	u.id, u.username, u.phone, u.address, u.created_at`

const productFrom = ` FROM products p JOIN users u ON u.id = p.seller_id `

func scanProduct(row pgx.Row) (market.Product, error) {
	var p market.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Photos, &p.Category, &p.Condition, &p.Price, &p.Status,
		&p.PickupStatus, &p.Address, &p.CreatedAt, &p.BuyerID,
		&p.Seller.ID, &p.Seller.Username, &p.Seller.Phone, &p.Seller.Address, &p.Seller.MemberSince,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Product{}, market.ErrNotFound
	}
	if err != nil {
		return market.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]market.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]market.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a new listing and returns it with seller info attached.
func (s *Store) CreateProduct(ctx context.Context, in market.NewProduct) (market.Product, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (seller_id, name, photos, category, condition, price, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		in.SellerID, in.Name, in.Photos, in.Category, in.Condition, in.Price, in.Address,
	).Scan(&id)
	if err != nil {
		return market.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// GetProduct fetches one listing by id, including its seller's public info.
func (s *Store) GetProduct(ctx context.Context, id int64) (market.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+productFrom+`WHERE p.id = $1`, id)
	return scanProduct(row)
}

// ListAvailableProducts returns Available listings sorted by creation date or
// price. sortBy and order are whitelisted here; anything unrecognized falls
// back to newest-first.
func (s *Store) ListAvailableProducts(ctx context.Context, sortBy, order string) ([]market.Product, error) {
	col := "p.created_at"
	if sortBy == "price" {
		col = "p.price"
	}
	dir := "DESC"
	if order == "asc" {
		dir = "ASC"
	}

	query := `SELECT ` + productColumns + productFrom +
		`WHERE p.status = $1 ORDER BY ` + col + ` ` + dir
	return s.queryProducts(ctx, query, market.StatusAvailable)
}

// ListProductsByCategory returns Available listings in the given category,
// newest first.
func (s *Store) ListProductsByCategory(ctx context.Context, category string) ([]market.Product, error) {
	query := `SELECT ` + productColumns + productFrom +
		`WHERE p.status = $1 AND p.category = $2 ORDER BY p.created_at DESC`
	return s.queryProducts(ctx, query, market.StatusAvailable, category)
}

// ListProductsBySeller returns all listings owned by the given user, newest first.
func (s *Store) ListProductsBySeller(ctx context.Context, sellerID int64) ([]market.Product, error) {
	query := `SELECT ` + productColumns + productFrom +
		`WHERE p.seller_id = $2 AND p.status = $1 ORDER BY p.created_at DESC`
	return s.queryProducts(ctx, query, market.StatusAvailable, sellerID)
}

// MarkProductSold transitions a listing to Sold. Only the seller may do this;
// a non-owner gets market.ErrNotFound just like a missing listing, so the
// query doubles as the ownership check.
func (s *Store) MarkProductSold(ctx context.Context, productID, sellerID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET status = $3
		WHERE id = $1 AND seller_id = $2`,
		productID, sellerID, market.StatusSold)
	if err != nil {
		return fmt.Errorf("mark product sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

// UpdatePickupStatus sets the pickup lifecycle status of a listing owned by sellerID.
func (s *Store) UpdatePickupStatus(ctx context.Context, productID, sellerID int64, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET pickup_status = $3
		WHERE id = $1 AND seller_id = $2`,
		productID, sellerID, status)
	if err != nil {
		return fmt.Errorf("update pickup status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

// ListOrders returns the listings the user is selling (accepted or sold) and
// the ones they are buying.
func (s *Store) ListOrders(ctx context.Context, userID int64) (selling, buying []market.Product, err error) {
	selling, err = s.queryProducts(ctx, `SELECT `+productColumns+productFrom+`
		WHERE p.seller_id = $1 AND (p.buyer_id IS NOT NULL OR p.status = $2)
		ORDER BY p.created_at DESC`, userID, market.StatusSold)
	if err != nil {
		return nil, nil, err
	}

	buying, err = s.queryProducts(ctx, `SELECT `+productColumns+productFrom+`
		WHERE p.buyer_id = $1 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, nil, err
	}

	return selling, buying, nil
}
