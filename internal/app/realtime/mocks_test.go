package realtime

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"swapyard/internal/app/market"
)

// MockStore is a testify mock of the hub's persistence surface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetProduct(ctx context.Context, id int64) (market.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(market.Product), args.Error(1)
}

func (m *MockStore) CreatePurchaseRequest(ctx context.Context, productID, buyerID int64) (market.PurchaseRequest, error) {
	args := m.Called(ctx, productID, buyerID)
	return args.Get(0).(market.PurchaseRequest), args.Error(1)
}

func (m *MockStore) AcceptPurchaseRequest(ctx context.Context, productID, buyerID, sellerID int64) (int64, error) {
	args := m.Called(ctx, productID, buyerID, sellerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) DeclinePurchaseRequest(ctx context.Context, productID, buyerID int64) error {
	args := m.Called(ctx, productID, buyerID)
	return args.Error(0)
}

func (m *MockStore) IsChatParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ChatParticipants(ctx context.Context, chatID int64) ([]market.UserRef, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).([]market.UserRef), args.Error(1)
}

func (m *MockStore) InsertMessage(ctx context.Context, chatID, senderID int64, content string) (market.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	return args.Get(0).(market.Message), args.Error(1)
}

func (m *MockStore) CreateNotification(ctx context.Context, in market.NewNotification) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

// fakePeer records everything the hub delivers to it.
type fakePeer struct {
	id       int64
	username string

	mu     sync.Mutex
	sent   []Envelope
	kicked []string
}

func newFakePeer(id int64, username string) *fakePeer {
	return &fakePeer{id: id, username: username}
}

func (p *fakePeer) UserID() int64 {
	return p.id
}

func (p *fakePeer) Username() string {
	return p.username
}

func (p *fakePeer) Send(env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return nil
}

func (p *fakePeer) Kick(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kicked = append(p.kicked, reason)
}

func (p *fakePeer) sentEvents() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Envelope, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *fakePeer) kickCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.kicked)
}
