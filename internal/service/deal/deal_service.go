package deal

import (
	"context"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"

	"modmarket/internal/model"
	"modmarket/internal/monitor"
	"modmarket/internal/repository"
	"modmarket/internal/service/notify"
	"modmarket/internal/ws"
	"modmarket/pkg/log"
	"modmarket/pkg/snowflake"
	"modmarket/pkg/utils"
)

// DealService deal lifecycle operations
type DealService interface {
	// Create opens a pending deal on an active product
	Create(ctx context.Context, actor Actor, productID uint64) (*model.Deal, error)

	// Get returns one deal, limited to its buyer or an admin
	Get(ctx context.Context, actor Actor, dealID uint64) (*model.Deal, error)

	// List returns all deals for admins, own deals otherwise
	List(ctx context.Context, actor Actor) ([]*model.Deal, error)

	// UpdateStatus moves the deal through the status graph
	UpdateStatus(ctx context.Context, actor Actor, dealID uint64, target model.DealStatus, steamCardCode *string) (*model.Deal, error)

	// SendMessage appends a message to the deal thread
	SendMessage(ctx context.Context, actor Actor, dealID uint64, body string) (*model.DealMessage, error)

	// ListMessages returns the deal thread in creation order
	ListMessages(ctx context.Context, actor Actor, dealID uint64) ([]*model.DealMessage, error)

	// CancelActiveDealsForUser cancels every active deal of the user in one
	// transaction (admin ban flow). Returns how many were cancelled.
	CancelActiveDealsForUser(ctx context.Context, actor Actor, userID uint64) (int, error)
}

type dealService struct {
	dealRepo    repository.DealRepository
	messageRepo repository.MessageRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	hub         *ws.Hub
	dispatcher  *notify.Dispatcher
	idGen       *snowflake.IDGenerator
}

// NewDealService creates a deal service
func NewDealService(
	dealRepo repository.DealRepository,
	messageRepo repository.MessageRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	hub *ws.Hub,
	dispatcher *notify.Dispatcher,
	idGen *snowflake.IDGenerator,
) DealService {
	return &dealService{
		dealRepo:    dealRepo,
		messageRepo: messageRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		hub:         hub,
		dispatcher:  dispatcher,
		idGen:       idGen,
	}
}

// Create opens a pending deal and notifies the seller
func (s *dealService) Create(ctx context.Context, actor Actor, productID uint64) (*model.Deal, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		monitor.RecordDealCreation(false)
		return nil, err
	}
	if !product.IsActive {
		monitor.RecordDealCreation(false)
		return nil, utils.ErrProductUnavailable
	}

	deal := &model.Deal{
		DealNo:    s.idGen.NextDealNo(),
		BuyerID:   actor.ID,
		ProductID: productID,
		Status:    model.DealStatusPending,
	}
	firstMessage := &model.DealMessage{
		SenderID: actor.ID,
		Body:     fmt.Sprintf("Deal created for %s", product.TitleRU),
		IsSystem: true,
	}

	if err := s.dealRepo.Create(ctx, deal, firstMessage); err != nil {
		monitor.RecordDealCreation(false)
		return nil, err
	}
	monitor.RecordDealCreation(true)
	monitor.RecordDealMessage(true)

	s.notifySeller(ctx, deal, actor, product)

	return deal, nil
}

// notifySeller tells the admin about a new deal. Runs after commit; failures
// here never affect the stored deal.
func (s *dealService) notifySeller(ctx context.Context, deal *model.Deal, buyer Actor, product *model.Product) {
	admin, err := s.userRepo.FirstAdmin(ctx)
	if err != nil {
		log.Warnf("notify seller for deal %s: no admin: %v", deal.DealNo, err)
		return
	}

	n := &model.Notification{
		UserID: admin.ID,
		Title:  "New Deal Request",
		Body:   fmt.Sprintf("%s wants to buy %s", buyer.Username, product.TitleRU),
		Type:   model.NotificationTypeDealRequest,
		DealID: &deal.ID,
	}
	if err := s.dispatcher.Notify(ctx, n); err != nil {
		log.Errorf("store deal-request notification for deal %s: %v", deal.DealNo, err)
	}

	delivered := s.hub.SendTo(admin.ID, ws.NewDealEvent(deal))
	monitor.RecordWSEvent(ws.EventNewDeal, delivered)
}

// Get returns one deal, limited to its buyer or an admin
func (s *dealService) Get(ctx context.Context, actor Actor, dealID uint64) (*model.Deal, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && deal.BuyerID != actor.ID {
		return nil, utils.ErrAccessDenied
	}
	return deal, nil
}

// List returns all deals for admins, own deals otherwise
func (s *dealService) List(ctx context.Context, actor Actor) ([]*model.Deal, error) {
	if actor.IsAdmin {
		return s.dealRepo.ListAll(ctx)
	}
	return s.dealRepo.ListByBuyer(ctx, actor.ID)
}

// UpdateStatus moves the deal through the status graph. Authorization, the
// status write, the optional payment code, and the system message commit in
// one row-locked transaction; the counterparty is notified after commit.
func (s *dealService) UpdateStatus(ctx context.Context, actor Actor, dealID uint64, target model.DealStatus, steamCardCode *string) (*model.Deal, error) {
	if !target.Valid() {
		return nil, utils.ErrInvalidTransition
	}

	if tr := monitor.GlobalTracer(); tr != nil {
		var span oteltrace.Span
		ctx, span = tr.StartDealSpan(ctx, "update_status", dealID, actor.ID)
		defer span.End()
	}

	var from model.DealStatus
	deal, err := s.dealRepo.Transition(ctx, dealID, func(d *model.Deal) (*model.DealMessage, error) {
		if err := authorizeTransition(actor, d, target); err != nil {
			return nil, err
		}

		from = d.Status
		applyTransition(d, target, steamCardCode)

		return &model.DealMessage{
			SenderID: actor.ID,
			Body:     fmt.Sprintf("Deal status updated to %s", target),
			IsSystem: true,
		}, nil
	})
	if err != nil {
		// from is only known once the mutate closure has seen the row; a
		// not-found or authorization failure leaves it empty.
		if from != "" {
			monitor.RecordDealTransition(string(from), string(target), false)
		}
		return nil, err
	}
	monitor.RecordDealTransition(string(from), string(target), true)
	monitor.RecordDealMessage(true)

	s.notifyCounterparty(ctx, actor, deal)

	return deal, nil
}

// notifyCounterparty tells the other side of the deal about a status change.
// Runs after commit; a delivery failure can never roll the deal back.
func (s *dealService) notifyCounterparty(ctx context.Context, actor Actor, deal *model.Deal) {
	otherID, ok := s.counterparty(ctx, actor, deal)
	if !ok {
		return
	}

	n := &model.Notification{
		UserID: otherID,
		Title:  "Deal Status Updated",
		Body:   fmt.Sprintf("Deal %s status changed to %s", deal.DealNo, deal.Status),
		Type:   model.NotificationTypeDealUpdate,
		DealID: &deal.ID,
	}
	if err := s.dispatcher.Notify(ctx, n); err != nil {
		log.Errorf("store deal-update notification for deal %s: %v", deal.DealNo, err)
	}

	delivered := s.hub.SendTo(otherID, ws.DealUpdateEvent(deal))
	monitor.RecordWSEvent(ws.EventDealUpdate, delivered)
}

// counterparty resolves the other side of a deal: the buyer when an admin
// acts, the admin/seller when the buyer acts
func (s *dealService) counterparty(ctx context.Context, actor Actor, deal *model.Deal) (uint64, bool) {
	if actor.IsAdmin {
		return deal.BuyerID, true
	}
	admin, err := s.userRepo.FirstAdmin(ctx)
	if err != nil {
		log.Warnf("resolve counterparty for deal %s: no admin: %v", deal.DealNo, err)
		return 0, false
	}
	return admin.ID, true
}

// SendMessage appends a message to the deal thread and pushes it live to the
// counterparty
func (s *dealService) SendMessage(ctx context.Context, actor Actor, dealID uint64, body string) (*model.DealMessage, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && deal.BuyerID != actor.ID {
		return nil, utils.ErrAccessDenied
	}

	msg := &model.DealMessage{
		DealID:   dealID,
		SenderID: actor.ID,
		Body:     body,
		IsSystem: false,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	monitor.RecordDealMessage(false)

	if otherID, ok := s.counterparty(ctx, actor, deal); ok {
		delivered := s.hub.SendTo(otherID, ws.NewMessageEvent(msg))
		monitor.RecordWSEvent(ws.EventNewMessage, delivered)
	}

	return msg, nil
}

// ListMessages returns the deal thread in creation order
func (s *dealService) ListMessages(ctx context.Context, actor Actor, dealID uint64) ([]*model.DealMessage, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && deal.BuyerID != actor.ID {
		return nil, utils.ErrAccessDenied
	}

	return s.messageRepo.ListByDeal(ctx, dealID)
}

// CancelActiveDealsForUser cancels every active deal of the user atomically.
// It reuses the transition code path, so the same edge rules and system
// messages apply to each deal.
func (s *dealService) CancelActiveDealsForUser(ctx context.Context, actor Actor, userID uint64) (int, error) {
	if !actor.IsAdmin {
		return 0, utils.ErrAccessDenied
	}

	var froms []model.DealStatus
	cancelled, err := s.dealRepo.TransitionActiveByBuyer(ctx, userID, func(d *model.Deal) (*model.DealMessage, error) {
		if err := checkEdge(d.Status, model.DealStatusCancelled); err != nil {
			return nil, err
		}
		froms = append(froms, d.Status)
		applyTransition(d, model.DealStatusCancelled, nil)

		return &model.DealMessage{
			SenderID: actor.ID,
			Body:     fmt.Sprintf("Deal status updated to %s", model.DealStatusCancelled),
			IsSystem: true,
		}, nil
	})
	if err != nil {
		return 0, err
	}

	for i, deal := range cancelled {
		monitor.RecordDealTransition(string(froms[i]), string(model.DealStatusCancelled), true)
		s.notifyCounterparty(ctx, actor, deal)
	}

	return len(cancelled), nil
}
