/*
This file defines the Hub, the central registry of live sessions and the
single event loop every inbound event passes through.

Running all event handling on one goroutine gives the ordering guarantee the
chat relay needs: messages within a chat are persisted and fanned out in one
total order, identical for every participant.
*/
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
)

const (
	registerChannelBuffer = 16
	inboundChannelBuffer  = 1024

	// eventTimeout bounds the database work done for a single inbound event.
	eventTimeout = 5 * time.Second
)

// Store is the persistence surface the hub depends on.
type Store interface {
	GetProduct(ctx context.Context, id int64) (market.Product, error)
	CreatePurchaseRequest(ctx context.Context, productID, buyerID int64) (market.PurchaseRequest, error)
	AcceptPurchaseRequest(ctx context.Context, productID, buyerID, sellerID int64) (int64, error)
	DeclinePurchaseRequest(ctx context.Context, productID, buyerID int64) error
	IsChatParticipant(ctx context.Context, chatID, userID int64) (bool, error)
	ChatParticipants(ctx context.Context, chatID int64) ([]market.UserRef, error)
	InsertMessage(ctx context.Context, chatID, senderID int64, content string) (market.Message, error)
	CreateNotification(ctx context.Context, in market.NewNotification) (int64, error)
}

// Peer is one live connection the hub can deliver events to. *Session is the
// production implementation.
type Peer interface {
	UserID() int64
	Username() string
	Send(env Envelope) error
	Kick(reason string)
}

type inboundEvent struct {
	peer Peer
	raw  []byte
}

// Hub owns the set of live sessions and processes every inbound event.
type Hub struct {
	sessions map[int64]Peer

	register   chan Peer
	unregister chan Peer
	inbound    chan inboundEvent

	store Store

	// stopChan signals the Run loop to terminate.
	stopChan chan struct{}
	stopOnce sync.Once

	// wg waits for the Run loop to finish during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub over the given store.
func NewHub(store Store) *Hub {
	return &Hub{
		sessions:   make(map[int64]Peer),
		register:   make(chan Peer, registerChannelBuffer),
		unregister: make(chan Peer, registerChannelBuffer),
		inbound:    make(chan inboundEvent, inboundChannelBuffer),
		store:      store,
		stopChan:   make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register queues a session for attachment. An existing session for the same
// user is kicked when the registration is processed.
func (h *Hub) Register(p Peer) {
	select {
	case h.register <- p:
	case <-h.stopChan:
		p.Kick("server shutting down")
	}
}

// Unregister queues a session for detachment.
func (h *Hub) Unregister(p Peer) {
	select {
	case h.unregister <- p:
	case <-h.stopChan:
	}
}

// Dispatch queues one raw inbound frame from a session.
func (h *Hub) Dispatch(p Peer, raw []byte) {
	select {
	case h.inbound <- inboundEvent{peer: p, raw: raw}:
	default:
		h.logger.Warn().Int64("user_id", p.UserID()).Msg("Inbound channel full, dropping event.")
		h.sendError(p, errs.NewError(errs.ErrUnknown))
	}
}

// Run starts the hub event loop. It returns when Shutdown is called.
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	h.logger.Info().Msg("Hub event loop started.")

	for {
		select {
		case p := <-h.register:
			h.attach(p)

		case p := <-h.unregister:
			h.detach(p)

		case ev := <-h.inbound:
			h.handleEvent(ev.peer, ev.raw)

		case <-h.stopChan:
			for _, p := range h.sessions {
				p.Kick("server shutting down")
			}
			h.sessions = make(map[int64]Peer)
			h.logger.Info().Msg("Hub event loop stopped.")
			return
		}
	}
}

// Shutdown stops the Run loop and waits for it to exit.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
	h.wg.Wait()
}

// attach registers a session, replacing (and kicking) any previous session
// for the same user so listeners never fire twice for one identity.
func (h *Hub) attach(p Peer) {
	if existing, ok := h.sessions[p.UserID()]; ok && existing != p {
		h.logger.Warn().
			Int64("user_id", p.UserID()).
			Msg("User already connected. Replacing old session.")
		h.sendError(existing, errs.NewError(errs.ErrSessionReplaced))
		existing.Kick("Session replaced by new connection.")
	}

	h.sessions[p.UserID()] = p
	h.logger.Info().
		Int64("user_id", p.UserID()).
		Int("total_sessions", len(h.sessions)).
		Msg("Session attached.")
}

// detach removes a session, ignoring stale unregisters from connections that
// were already replaced.
func (h *Hub) detach(p Peer) {
	current, ok := h.sessions[p.UserID()]
	if !ok || current != p {
		return
	}

	delete(h.sessions, p.UserID())
	h.logger.Info().
		Int64("user_id", p.UserID()).
		Int("total_sessions", len(h.sessions)).
		Msg("Session detached.")
}

// handleEvent decodes one inbound frame and dispatches it to the matching handler.
func (h *Hub) handleEvent(p Peer, raw []byte) {
	env, decodeErr := decodeEnvelope(raw)
	if decodeErr != nil {
		h.sendError(p, decodeErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch env.Event {
	case EventRequestPurchase:
		h.handleRequestPurchase(ctx, p, env)

	case EventAcceptRequest:
		h.handleAcceptRequest(ctx, p, env)

	case EventDeclineRequest:
		h.handleDeclineRequest(ctx, p, env)

	case EventSendMessage:
		h.handleSendMessage(ctx, p, env)

	default:
		h.logger.Warn().
			Int64("user_id", p.UserID()).
			Str("event", env.Event).
			Msg("Session sent unsupported event.")
		h.sendError(p, errs.NewError(errs.ErrUnsupportedEvent))
	}
}

// handleRequestPurchase opens a purchase request: the buyer must not own the
// listing and the listing must still be available. The seller gets a live
// server:new_request if connected; a notification row is written either way
// so the request survives the seller being offline.
func (h *Hub) handleRequestPurchase(ctx context.Context, p Peer, env Envelope) {
	var payload RequestPurchasePayload
	if err := decodePayload(env, &payload); err != nil {
		h.sendError(p, err)
		return
	}
	if payload.ProductID <= 0 {
		h.sendError(p, errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	product, err := h.store.GetProduct(ctx, payload.ProductID)
	if errors.Is(err, market.ErrNotFound) {
		h.sendError(p, errs.NewError(errs.ErrProductNotFound))
		return
	}
	if err != nil {
		logx.Error(err, "request_purchase: product lookup failed", "product_id", payload.ProductID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}

	if product.Seller.ID == p.UserID() {
		h.sendError(p, errs.NewError(errs.ErrRequestOwnProduct))
		return
	}
	if product.Status != market.StatusAvailable {
		h.sendError(p, errs.NewError(errs.ErrProductUnavailable))
		return
	}

	if _, err := h.store.CreatePurchaseRequest(ctx, product.ID, p.UserID()); err != nil {
		if errors.Is(err, market.ErrDuplicate) {
			h.sendError(p, errs.NewError(errs.ErrDuplicateRequest))
			return
		}
		logx.Error(err, "request_purchase: create failed", "product_id", product.ID, "buyer_id", p.UserID())
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}

	if _, err := h.store.CreateNotification(ctx, market.NewNotification{
		UserID:        product.Seller.ID,
		Kind:          market.NotificationPurchaseRequest,
		ProductID:     product.ID,
		ProductName:   product.Name,
		BuyerID:       p.UserID(),
		BuyerUsername: p.Username(),
	}); err != nil {
		// Delivery still proceeds; the seller just loses the offline copy.
		logx.Error(err, "request_purchase: notification write failed", "seller_id", product.Seller.ID)
	}

	if seller, ok := h.sessions[product.Seller.ID]; ok {
		h.send(seller, EventNewRequest, NewRequestPayload{
			ProductID:     product.ID,
			ProductName:   product.Name,
			BuyerID:       p.UserID(),
			BuyerUsername: p.Username(),
		})
	}

	h.send(p, EventRequestSent, nil)
}

// handleAcceptRequest resolves a pending request to accepted. Only the
// listing's seller may accept, and a request that already reached a terminal
// state is rejected. Both participants learn the new chat's id.
func (h *Hub) handleAcceptRequest(ctx context.Context, p Peer, env Envelope) {
	payload, product, ok := h.decodeResolve(ctx, p, env)
	if !ok {
		return
	}

	chatID, err := h.store.AcceptPurchaseRequest(ctx, product.ID, payload.BuyerID, p.UserID())
	if errors.Is(err, market.ErrAlreadyResolved) {
		h.sendError(p, errs.NewError(errs.ErrRequestAlreadyResolved))
		return
	}
	if err != nil {
		logx.Error(err, "accept_request: resolve failed", "product_id", product.ID, "buyer_id", payload.BuyerID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}

	started := ChatStartedPayload{ChatID: chatID}
	if buyer, ok := h.sessions[payload.BuyerID]; ok {
		h.send(buyer, EventChatStarted, started)
	}
	h.send(p, EventChatStarted, started)
}

// handleDeclineRequest resolves a pending request to declined. The buyer is
// not informed; a declined request simply produces no chat.
func (h *Hub) handleDeclineRequest(ctx context.Context, p Peer, env Envelope) {
	payload, product, ok := h.decodeResolve(ctx, p, env)
	if !ok {
		return
	}

	err := h.store.DeclinePurchaseRequest(ctx, product.ID, payload.BuyerID)
	if errors.Is(err, market.ErrAlreadyResolved) {
		h.sendError(p, errs.NewError(errs.ErrRequestAlreadyResolved))
		return
	}
	if err != nil {
		logx.Error(err, "decline_request: resolve failed", "product_id", product.ID, "buyer_id", payload.BuyerID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
	}
}

// decodeResolve validates the shared preamble of accept and decline: payload
// shape, listing existence, and that the acting user owns the listing.
func (h *Hub) decodeResolve(ctx context.Context, p Peer, env Envelope) (ResolveRequestPayload, market.Product, bool) {
	var payload ResolveRequestPayload
	if err := decodePayload(env, &payload); err != nil {
		h.sendError(p, err)
		return payload, market.Product{}, false
	}
	if payload.ProductID <= 0 || payload.BuyerID <= 0 {
		h.sendError(p, errs.NewError(errs.ErrInvalidEventPayload))
		return payload, market.Product{}, false
	}

	product, err := h.store.GetProduct(ctx, payload.ProductID)
	if errors.Is(err, market.ErrNotFound) {
		h.sendError(p, errs.NewError(errs.ErrProductNotFound))
		return payload, market.Product{}, false
	}
	if err != nil {
		logx.Error(err, "resolve_request: product lookup failed", "product_id", payload.ProductID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return payload, market.Product{}, false
	}

	if product.Seller.ID != p.UserID() {
		h.sendError(p, errs.NewError(errs.ErrNotProductSeller))
		return payload, market.Product{}, false
	}

	return payload, product, true
}

// handleSendMessage validates, persists, and fans out one chat message to
// every participant, the sender included: the client's only transcript
// mutation path is the receive handler.
func (h *Hub) handleSendMessage(ctx context.Context, p Peer, env Envelope) {
	var payload SendMessagePayload
	if err := decodePayload(env, &payload); err != nil {
		h.sendError(p, err)
		return
	}
	if payload.ChatID <= 0 {
		h.sendError(p, errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	content, contentErr := ValidateContent(payload.Content)
	if contentErr != nil {
		h.sendError(p, contentErr)
		return
	}

	isParticipant, err := h.store.IsChatParticipant(ctx, payload.ChatID, p.UserID())
	if err != nil {
		logx.Error(err, "send_message: participant check failed", "chat_id", payload.ChatID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}
	if !isParticipant {
		h.sendError(p, errs.NewError(errs.ErrNotChatParticipant))
		return
	}

	message, err := h.store.InsertMessage(ctx, payload.ChatID, p.UserID(), content)
	if err != nil {
		logx.Error(err, "send_message: persist failed", "chat_id", payload.ChatID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}

	participants, err := h.store.ChatParticipants(ctx, payload.ChatID)
	if err != nil {
		logx.Error(err, "send_message: participant list failed", "chat_id", payload.ChatID)
		h.sendError(p, errs.NewError(errs.ErrUnknown))
		return
	}

	outbound := NewMessageEvent(message)
	for _, participant := range participants {
		if session, ok := h.sessions[participant.ID]; ok {
			h.send(session, EventNewMessage, outbound)
		}
	}
}

// send builds an envelope and queues it on a session, logging delivery failures.
func (h *Hub) send(p Peer, event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		logx.Error(err, "Failed to build outbound envelope", "event", event)
		return
	}

	if err := p.Send(env); err != nil {
		h.logger.Warn().
			Int64("user_id", p.UserID()).
			Str("event", event).
			Err(err).
			Msg("Failed to queue outbound event.")
	}
}

// sendError queues a server:error event carrying the error's code and message.
func (h *Hub) sendError(p Peer, customErr *errs.CustomError) {
	h.send(p, EventError, ErrorPayload{Code: customErr.Code, Msg: customErr.Message})
}
