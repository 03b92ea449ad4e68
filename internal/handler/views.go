package handler

import (
	"time"

	"swapyard/internal/app/market"
)

// SellerView is the public seller block embedded in product responses.
type SellerView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	MemberSince string `json:"memberSince"`
}

// ProductView is the JSON shape of a listing in all product responses.
type ProductView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Photos       []string   `json:"photos"`
	Category     string     `json:"category"`
	Condition    string     `json:"condition"`
	Price        float64    `json:"price"`
	Status       string     `json:"status"`
	PickupStatus string     `json:"pickupStatus"`
	Address      string     `json:"address"`
	CreatedAt    string     `json:"createdAt"`
	Seller       SellerView `json:"seller"`
}

// MessageView is the JSON shape of a chat message in REST responses. It
// matches the server:new_message real-time payload so clients render both
// sources the same way.
type MessageView struct {
	ID             int64  `json:"id"`
	ChatID         int64  `json:"chatId"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
}

// NotificationView is the JSON shape of a persisted notification.
type NotificationView struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	BuyerID       int64  `json:"buyerId"`
	BuyerUsername string `json:"buyerUsername"`
	Read          bool   `json:"read"`
	CreatedAt     string `json:"createdAt"`
}

func productView(p market.Product) ProductView {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Photos:       photos,
		Category:     p.Category,
		Condition:    p.Condition,
		Price:        p.Price,
		Status:       p.Status,
		PickupStatus: p.PickupStatus,
		Address:      p.Address,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		Seller: SellerView{
			ID:          p.Seller.ID,
			Username:    p.Seller.Username,
			Phone:       p.Seller.Phone,
			Address:     p.Seller.Address,
			MemberSince: p.Seller.MemberSince.Format(time.RFC3339),
		},
	}
}

func productViews(products []market.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	return views
}

func messageView(m market.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ChatID:         m.ChatID,
		Content:        m.Content,
		Timestamp:      m.CreatedAt.Format(time.RFC3339Nano),
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
	}
}

func messageViews(messages []market.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m))
	}
	return views
}

func notificationView(n market.Notification) NotificationView {
	return NotificationView{
		ID:            n.ID,
		Kind:          n.Kind,
		ProductID:     n.ProductID,
		ProductName:   n.ProductName,
		BuyerID:       n.BuyerID,
		BuyerUsername: n.BuyerUsername,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt.Format(time.RFC3339),
	}
}

func userView(u market.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"fullName": u.FullName,
		"phone":    u.Phone,
		"email":    u.Email,
		"address":  u.Address,
		"joinedAt": u.CreatedAt.Format(time.RFC3339),
	}
}
