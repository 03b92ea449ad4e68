package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/errs"
)

func availableProduct(id, sellerID int64) market.Product {
	return market.Product{
		ID:     id,
		Name:   "Road Bike",
		Status: market.StatusAvailable,
		Seller: market.Seller{ID: sellerID, Username: "seller_sam"},
	}
}

// lastErrorCode extracts the error code from the most recent server:error
// event delivered to the peer.
func lastErrorCode(t *testing.T, p *fakePeer) int {
	t.Helper()

	events := p.sentEvents()
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, EventError, last.Event)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(last.Data, &payload))
	return payload.Code
}

func eventNames(envelopes []Envelope) []string {
	names := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		names = append(names, env.Event)
	}
	return names
}

func TestRequestPurchaseNotifiesSellerAndAcksBuyer(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	seller := newFakePeer(1, "seller_sam")
	hub.attach(buyer)
	hub.attach(seller)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("CreatePurchaseRequest", mock.Anything, int64(10), int64(2)).
		Return(market.PurchaseRequest{ID: 5, ProductID: 10, BuyerID: 2, Status: market.RequestPending}, nil)
	store.On("CreateNotification", mock.Anything, market.NewNotification{
		UserID:        1,
		Kind:          market.NotificationPurchaseRequest,
		ProductID:     10,
		ProductName:   "Road Bike",
		BuyerID:       2,
		BuyerUsername: "buyer_bella",
	}).Return(int64(1), nil)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":10}}`))

	sellerEvents := seller.sentEvents()
	require.Len(t, sellerEvents, 1)
	assert.Equal(t, EventNewRequest, sellerEvents[0].Event)

	var notify NewRequestPayload
	require.NoError(t, json.Unmarshal(sellerEvents[0].Data, &notify))
	assert.Equal(t, int64(10), notify.ProductID)
	assert.Equal(t, "Road Bike", notify.ProductName)
	assert.Equal(t, int64(2), notify.BuyerID)
	assert.Equal(t, "buyer_bella", notify.BuyerUsername)

	buyerEvents := buyer.sentEvents()
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, EventRequestSent, buyerEvents[0].Event)

	store.AssertExpectations(t)
}

func TestRequestPurchasePersistsNotificationForOfflineSeller(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("CreatePurchaseRequest", mock.Anything, int64(10), int64(2)).
		Return(market.PurchaseRequest{ID: 5}, nil)
	store.On("CreateNotification", mock.Anything, mock.AnythingOfType("market.NewNotification")).
		Return(int64(1), nil)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":10}}`))

	buyerEvents := buyer.sentEvents()
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, EventRequestSent, buyerEvents[0].Event)

	store.AssertExpectations(t)
}

func TestRequestPurchaseRejectsOwnProduct(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	hub.attach(seller)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)

	hub.handleEvent(seller, []byte(`{"event":"client:request_purchase","data":{"productId":10}}`))

	assert.Equal(t, errs.ErrRequestOwnProduct, lastErrorCode(t, seller))
	store.AssertNotCalled(t, "CreatePurchaseRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestPurchaseRejectsUnavailableProduct(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	sold := availableProduct(10, 1)
	sold.Status = market.StatusSold
	store.On("GetProduct", mock.Anything, int64(10)).Return(sold, nil)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":10}}`))

	assert.Equal(t, errs.ErrProductUnavailable, lastErrorCode(t, buyer))
	store.AssertNotCalled(t, "CreatePurchaseRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestPurchaseRejectsDuplicate(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("CreatePurchaseRequest", mock.Anything, int64(10), int64(2)).
		Return(market.PurchaseRequest{}, market.ErrDuplicate)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":10}}`))

	assert.Equal(t, errs.ErrDuplicateRequest, lastErrorCode(t, buyer))
	store.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestRequestPurchaseRejectsMissingProduct(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(99)).Return(market.Product{}, market.ErrNotFound)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":99}}`))

	assert.Equal(t, errs.ErrProductNotFound, lastErrorCode(t, buyer))
}

func TestAcceptRequestStartsChatForBothParticipants(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(seller)
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("AcceptPurchaseRequest", mock.Anything, int64(10), int64(2), int64(1)).
		Return(int64(77), nil)

	hub.handleEvent(seller, []byte(`{"event":"client:accept_request","data":{"productId":10,"buyerId":2}}`))

	for _, p := range []*fakePeer{seller, buyer} {
		events := p.sentEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventChatStarted, events[0].Event)

		var started ChatStartedPayload
		require.NoError(t, json.Unmarshal(events[0].Data, &started))
		assert.Equal(t, int64(77), started.ChatID)
	}

	store.AssertExpectations(t)
}

func TestAcceptRequestRejectsNonSeller(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	stranger := newFakePeer(3, "nosy_nick")
	hub.attach(stranger)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)

	hub.handleEvent(stranger, []byte(`{"event":"client:accept_request","data":{"productId":10,"buyerId":2}}`))

	assert.Equal(t, errs.ErrNotProductSeller, lastErrorCode(t, stranger))
	store.AssertNotCalled(t, "AcceptPurchaseRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptRequestRejectsAlreadyResolved(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(seller)
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("AcceptPurchaseRequest", mock.Anything, int64(10), int64(2), int64(1)).
		Return(int64(0), market.ErrAlreadyResolved)

	hub.handleEvent(seller, []byte(`{"event":"client:accept_request","data":{"productId":10,"buyerId":2}}`))

	assert.Equal(t, errs.ErrRequestAlreadyResolved, lastErrorCode(t, seller))
	assert.Empty(t, buyer.sentEvents())
}

func TestDeclineRequestIsSilentForBuyer(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(seller)
	hub.attach(buyer)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("DeclinePurchaseRequest", mock.Anything, int64(10), int64(2)).Return(nil)

	hub.handleEvent(seller, []byte(`{"event":"client:decline_request","data":{"productId":10,"buyerId":2}}`))

	assert.Empty(t, seller.sentEvents())
	assert.Empty(t, buyer.sentEvents())
	store.AssertExpectations(t)
}

func TestDeclineRequestRejectsAlreadyResolved(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	hub.attach(seller)

	store.On("GetProduct", mock.Anything, int64(10)).Return(availableProduct(10, 1), nil)
	store.On("DeclinePurchaseRequest", mock.Anything, int64(10), int64(2)).
		Return(market.ErrAlreadyResolved)

	hub.handleEvent(seller, []byte(`{"event":"client:decline_request","data":{"productId":10,"buyerId":2}}`))

	assert.Equal(t, errs.ErrRequestAlreadyResolved, lastErrorCode(t, seller))
}

func TestSendMessageFansOutToAllParticipantsInOrder(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	seller := newFakePeer(1, "seller_sam")
	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(seller)
	hub.attach(buyer)

	participants := []market.UserRef{
		{ID: 1, Username: "seller_sam"},
		{ID: 2, Username: "buyer_bella"},
	}

	store.On("IsChatParticipant", mock.Anything, int64(77), int64(2)).Return(true, nil)
	store.On("ChatParticipants", mock.Anything, int64(77)).Return(participants, nil)
	store.On("InsertMessage", mock.Anything, int64(77), int64(2), "hello").
		Return(market.Message{ID: 1, ChatID: 77, SenderID: 2, SenderUsername: "buyer_bella", Content: "hello", CreatedAt: time.Now()}, nil).Once()
	store.On("InsertMessage", mock.Anything, int64(77), int64(2), "is it still available?").
		Return(market.Message{ID: 2, ChatID: 77, SenderID: 2, SenderUsername: "buyer_bella", Content: "is it still available?", CreatedAt: time.Now()}, nil).Once()

	hub.handleEvent(buyer, []byte(`{"event":"client:send_message","data":{"chatId":77,"content":"hello"}}`))
	hub.handleEvent(buyer, []byte(`{"event":"client:send_message","data":{"chatId":77,"content":"is it still available?"}}`))

	// Both participants, the sender included, see the same two messages in
	// the same order.
	for _, p := range []*fakePeer{seller, buyer} {
		events := p.sentEvents()
		require.Len(t, events, 2)

		ids := make([]int64, 0, 2)
		for _, env := range events {
			assert.Equal(t, EventNewMessage, env.Event)
			var msg NewMessagePayload
			require.NoError(t, json.Unmarshal(env.Data, &msg))
			assert.Equal(t, int64(77), msg.ChatID)
			assert.Equal(t, "buyer_bella", msg.SenderUsername)
			ids = append(ids, msg.ID)
		}
		assert.Equal(t, []int64{1, 2}, ids)
	}
}

func TestSendMessageTrimsContentBeforePersisting(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	store.On("IsChatParticipant", mock.Anything, int64(77), int64(2)).Return(true, nil)
	store.On("ChatParticipants", mock.Anything, int64(77)).Return([]market.UserRef{{ID: 2}}, nil)
	store.On("InsertMessage", mock.Anything, int64(77), int64(2), "hello").
		Return(market.Message{ID: 1, ChatID: 77, SenderID: 2, Content: "hello", CreatedAt: time.Now()}, nil)

	hub.handleEvent(buyer, []byte(`{"event":"client:send_message","data":{"chatId":77,"content":"  hello  "}}`))

	store.AssertExpectations(t)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	hub.handleEvent(buyer, []byte(`{"event":"client:send_message","data":{"chatId":77,"content":"   "}}`))

	assert.Equal(t, errs.ErrMessageContentEmpty, lastErrorCode(t, buyer))
	store.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	stranger := newFakePeer(3, "nosy_nick")
	hub.attach(stranger)

	store.On("IsChatParticipant", mock.Anything, int64(77), int64(3)).Return(false, nil)

	hub.handleEvent(stranger, []byte(`{"event":"client:send_message","data":{"chatId":77,"content":"hi"}}`))

	assert.Equal(t, errs.ErrNotChatParticipant, lastErrorCode(t, stranger))
	store.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnsupportedEventProducesError(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	hub.handleEvent(buyer, []byte(`{"event":"client:dance","data":{}}`))

	assert.Equal(t, errs.ErrUnsupportedEvent, lastErrorCode(t, buyer))
}

func TestMalformedFrameProducesError(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	hub.handleEvent(buyer, []byte(`{not json`))

	assert.Equal(t, errs.ErrInvalidEventPayload, lastErrorCode(t, buyer))
}

func TestPayloadWithUnknownFieldsProducesError(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	buyer := newFakePeer(2, "buyer_bella")
	hub.attach(buyer)

	hub.handleEvent(buyer, []byte(`{"event":"client:request_purchase","data":{"productId":10,"extra":true}}`))

	assert.Equal(t, errs.ErrInvalidEventPayload, lastErrorCode(t, buyer))
	store.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
}

func TestSecondConnectionKicksFirst(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	go hub.Run()
	defer hub.Shutdown()

	first := newFakePeer(2, "buyer_bella")
	second := newFakePeer(2, "buyer_bella")

	hub.Register(first)
	hub.Register(second)

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, first.kickCount())
	assert.Equal(t, 0, second.kickCount())

	// A stale unregister from the replaced session must not detach the new one.
	hub.Unregister(first)
	time.Sleep(50 * time.Millisecond)

	store.On("GetProduct", mock.Anything, int64(99)).Return(market.Product{}, market.ErrNotFound)
	hub.Dispatch(second, []byte(`{"event":"client:request_purchase","data":{"productId":99}}`))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{EventError}, eventNames(second.sentEvents()))
}

func TestShutdownKicksAllSessions(t *testing.T) {
	store := new(MockStore)
	hub := NewHub(store)

	go hub.Run()

	buyer := newFakePeer(2, "buyer_bella")
	hub.Register(buyer)
	time.Sleep(50 * time.Millisecond)

	hub.Shutdown()

	assert.Equal(t, 1, buyer.kickCount())
}
