/*
Package market defines the core domain types of the marketplace: users,
product listings, purchase requests, chats, messages, and notifications.

These types are shared between the storage layer, the real-time hub, and the
HTTP handlers. Sentinel errors declared here let callers branch on storage
outcomes without depending on driver error types.
*/
package market

import (
	"errors"
	"time"
)

// Sentinel errors returned by the storage layer.
var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness conflict (existing user, or a
	// purchase request that is already pending).
	ErrDuplicate = errors.New("record already exists")

	// ErrAlreadyResolved indicates that a purchase request has already
	// reached a terminal state and cannot be accepted or declined again.
	ErrAlreadyResolved = errors.New("purchase request already resolved")
)

// Product listing statuses.
const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"
)

// Pickup lifecycle statuses for a sold listing.
const (
	PickupAwaitingDropoff = "Awaiting Drop-off"
	PickupAtCenter        = "At Center"
	PickupShipped         = "Shipped"
	PickupCompleted       = "Completed"
)

// ValidPickupStatus reports whether s is one of the pickup lifecycle values.
func ValidPickupStatus(s string) bool {
	switch s {
	case PickupAwaitingDropoff, PickupAtCenter, PickupShipped, PickupCompleted:
		return true
	}
	return false
}

// Purchase request states.
const (
	RequestPending  = "requested"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// NotificationPurchaseRequest is the kind of notification written when a
// buyer signals purchase intent on a listing.
const NotificationPurchaseRequest = "purchase_request"

// UserRef is the minimal public identity of a user, embedded in chat
// participant lists and real-time payloads.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	FullName     string
	Phone        string
	Email        string
	PasswordHash string
	Address      string
	CreatedAt    time.Time
}

// Ref returns the public identity of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// Seller is the public seller information attached to a product listing.
type Seller struct {
	ID          int64
	Username    string
	Phone       string
	Address     string
	MemberSince time.Time
}

// NewProduct is the input for creating a listing.
type NewProduct struct {
	SellerID  int64
	Name      string
	Photos    []string
	Category  string
	Condition string
	Price     float64
	Address   string
}

// Product is a listing offered for sale.
type Product struct {
	ID           int64
	Name         string
	Photos       []string
	Category     string
	Condition    string
	Price        float64
	Status       string
	PickupStatus string
	Address      string
	CreatedAt    time.Time
	BuyerID      int64 // zero until a purchase request is accepted
	Seller       Seller
}

// PurchaseRequest is a buyer-initiated intent to buy a specific product.
// It transitions from pending to exactly one terminal state.
type PurchaseRequest struct {
	ID         int64
	ProductID  int64
	BuyerID    int64
	Status     string
	ChatID     int64 // set when the request is accepted
	CreatedAt  time.Time
	ResolvedAt time.Time
}

// Chat is a message thread created when a purchase request is accepted,
// scoped to one product and its two participants.
type Chat struct {
	ID            int64
	ProductID     int64
	ProductName   string
	ProductStatus string
	SellerID      int64
	CreatedAt     time.Time
}

// Message is a single chat message with a server-assigned id and timestamp.
// Ids are monotonically increasing within the messages table, so per-chat
// order follows insertion order.
type Message struct {
	ID             int64
	ChatID         int64
	SenderID       int64
	SenderUsername string
	Content        string
	CreatedAt      time.Time
}

// NewNotification is the input for persisting a notification.
type NewNotification struct {
	UserID        int64
	Kind          string
	ProductID     int64
	ProductName   string
	BuyerID       int64
	BuyerUsername string
}

// Notification is a persisted event a user can list and mark as read, used
// to recover purchase requests that arrived while the user was offline.
type Notification struct {
	ID            int64
	UserID        int64
	Kind          string
	ProductID     int64
	ProductName   string
	BuyerID       int64
	BuyerUsername string
	Read          bool
	CreatedAt     time.Time
}
