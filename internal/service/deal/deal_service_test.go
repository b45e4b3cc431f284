package deal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modmarket/internal/model"
	"modmarket/internal/repository"
	"modmarket/internal/service/notify"
	"modmarket/internal/ws"
	"modmarket/pkg/breaker"
	"modmarket/pkg/snowflake"
	"modmarket/pkg/utils"
)

// fakeMessageRepo stores messages in memory, shared with fakeDealRepo so
// system messages land in the same thread as user messages
type fakeMessageRepo struct {
	msgs   []*model.DealMessage
	nextID uint64
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *model.DealMessage) error {
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMessageRepo) ListByDeal(ctx context.Context, dealID uint64) ([]*model.DealMessage, error) {
	var out []*model.DealMessage
	for _, m := range f.msgs {
		if m.DealID == dealID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeDealRepo mirrors the transactional contract in memory
type fakeDealRepo struct {
	deals    map[uint64]*model.Deal
	messages *fakeMessageRepo
	nextID   uint64
}

func newFakeDealRepo(messages *fakeMessageRepo) *fakeDealRepo {
	return &fakeDealRepo{deals: make(map[uint64]*model.Deal), messages: messages}
}

func (f *fakeDealRepo) Create(ctx context.Context, deal *model.Deal, firstMessage *model.DealMessage) error {
	f.nextID++
	deal.ID = f.nextID
	deal.CreatedAt = time.Now()
	f.deals[deal.ID] = deal
	if firstMessage != nil {
		firstMessage.DealID = deal.ID
		return f.messages.Create(ctx, firstMessage)
	}
	return nil
}

func (f *fakeDealRepo) GetByID(ctx context.Context, id uint64) (*model.Deal, error) {
	deal, ok := f.deals[id]
	if !ok {
		return nil, utils.ErrDealNotFound
	}
	copied := *deal
	return &copied, nil
}

func (f *fakeDealRepo) ListAll(ctx context.Context) ([]*model.Deal, error) {
	var out []*model.Deal
	for _, d := range f.deals {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDealRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]*model.Deal, error) {
	var out []*model.Deal
	for _, d := range f.deals {
		if d.BuyerID == buyerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDealRepo) Transition(ctx context.Context, dealID uint64, mutate repository.MutateDeal) (*model.Deal, error) {
	deal, ok := f.deals[dealID]
	if !ok {
		return nil, utils.ErrDealNotFound
	}

	// Mutate a copy; only commit on success, like the real transaction
	copied := *deal
	msg, err := mutate(&copied)
	if err != nil {
		return nil, err
	}
	f.deals[dealID] = &copied
	if msg != nil {
		msg.DealID = dealID
		if err := f.messages.Create(ctx, msg); err != nil {
			return nil, err
		}
	}
	return &copied, nil
}

func (f *fakeDealRepo) TransitionActiveByBuyer(ctx context.Context, buyerID uint64, mutate repository.MutateDeal) ([]*model.Deal, error) {
	var updated []*model.Deal
	for _, d := range f.deals {
		if d.BuyerID != buyerID || !d.IsActive() {
			continue
		}
		copied := *d
		msg, err := mutate(&copied)
		if err != nil {
			return nil, err
		}
		f.deals[d.ID] = &copied
		if msg != nil {
			msg.DealID = d.ID
			if err := f.messages.Create(ctx, msg); err != nil {
				return nil, err
			}
		}
		updated = append(updated, &copied)
	}
	return updated, nil
}

func (f *fakeDealRepo) CountByStatus(ctx context.Context) (map[model.DealStatus]int64, error) {
	counts := make(map[model.DealStatus]int64)
	for _, d := range f.deals {
		counts[d.Status]++
	}
	return counts, nil
}

func (f *fakeDealRepo) CompletedRevenue(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeProductRepo serves a fixed product set
type fakeProductRepo struct {
	repository.ProductRepository
	products map[uint64]*model.Product
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	return p, nil
}

// fakeUserRepo serves a fixed user set with one admin
type fakeUserRepo struct {
	repository.UserRepository
	users map[uint64]*model.User
	admin *model.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FirstAdmin(ctx context.Context) (*model.User, error) {
	if f.admin == nil {
		return nil, utils.ErrUserNotFound
	}
	return f.admin, nil
}

// fakeNotificationRepo records durable notification rows
type fakeNotificationRepo struct {
	repository.NotificationRepository
	created []*model.Notification
	nextID  uint64
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	f.nextID++
	n.ID = f.nextID
	f.created = append(f.created, n)
	return nil
}

// sink collects ws events for one user
type sink struct {
	events []ws.Event
}

func (s *sink) WriteJSON(v interface{}) error {
	s.events = append(s.events, v.(ws.Event))
	return nil
}

func (s *sink) Close() error { return nil }

type fixture struct {
	svc           DealService
	dealRepo      *fakeDealRepo
	messageRepo   *fakeMessageRepo
	notifications *fakeNotificationRepo
	hub           *ws.Hub
	admin         Actor
	buyer         Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	messages := &fakeMessageRepo{}
	deals := newFakeDealRepo(messages)

	adminUser := &model.User{ID: 1, Username: "admin", IsAdmin: true}
	buyerUser := &model.User{ID: 2, Username: "buyer"}
	users := &fakeUserRepo{
		users: map[uint64]*model.User{1: adminUser, 2: buyerUser},
		admin: adminUser,
	}

	products := &fakeProductRepo{products: map[uint64]*model.Product{
		5: {ID: 5, TitleRU: "Steam Gift Card", Price: 5000, IsActive: true},
		6: {ID: 6, TitleRU: "Retired Item", Price: 100, IsActive: false},
	}}

	notifications := &fakeNotificationRepo{}
	hub := ws.NewHub()
	breakers := breaker.NewManager(breaker.Config{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute})
	dispatcher := notify.NewDispatcher(notifications, users, hub, nil, breakers)

	idGen, err := snowflake.NewIDGenerator(1)
	require.NoError(t, err)

	svc := NewDealService(deals, messages, products, users, hub, dispatcher, idGen)

	return &fixture{
		svc:           svc,
		dealRepo:      deals,
		messageRepo:   messages,
		notifications: notifications,
		hub:           hub,
		admin:         Actor{ID: 1, Username: "admin", IsAdmin: true},
		buyer:         Actor{ID: 2, Username: "buyer"},
	}
}

func TestDealService_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deal, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)
	assert.Equal(t, model.DealStatusPending, deal.Status)
	assert.NotEmpty(t, deal.DealNo)

	// Seller got a durable notification before anything else
	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, uint64(1), f.notifications.created[0].UserID)
	assert.Equal(t, "New Deal Request", f.notifications.created[0].Title)

	_, err = f.svc.UpdateStatus(ctx, f.admin, deal.ID, model.DealStatusAccepted, nil)
	require.NoError(t, err)

	code := "ABCD-EFGH"
	updated, err := f.svc.UpdateStatus(ctx, f.buyer, deal.ID, model.DealStatusPaymentSent, &code)
	require.NoError(t, err)
	require.NotNil(t, updated.SteamCardCode)
	assert.Equal(t, code, *updated.SteamCardCode)

	final, err := f.svc.UpdateStatus(ctx, f.admin, deal.ID, model.DealStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DealStatusCompleted, final.Status)
	assert.NotNil(t, final.CompletedAt)

	// One system message per step: create + three transitions
	msgs, err := f.svc.ListMessages(ctx, f.buyer, deal.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "Deal created for Steam Gift Card", msgs[0].Body)
	assert.Equal(t, "Deal status updated to accepted", msgs[1].Body)
	assert.Equal(t, "Deal status updated to payment_sent", msgs[2].Body)
	assert.Equal(t, "Deal status updated to completed", msgs[3].Body)
	for _, m := range msgs {
		assert.True(t, m.IsSystem)
	}

	// Each transition notified the counterparty: 1 create + 3 updates
	assert.Len(t, f.notifications.created, 4)
	assert.Equal(t, uint64(2), f.notifications.created[1].UserID, "accept goes to the buyer")
	assert.Equal(t, uint64(1), f.notifications.created[2].UserID, "payment goes to the seller")

	// Terminal: nothing moves a completed deal
	_, err = f.svc.UpdateStatus(ctx, f.admin, deal.ID, model.DealStatusRejected, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestDealService_CreateProductChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.buyer, 999)
	assert.ErrorIs(t, err, utils.ErrProductNotFound)

	_, err = f.svc.Create(ctx, f.buyer, 6)
	assert.ErrorIs(t, err, utils.ErrProductUnavailable)
}

func TestDealService_AccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := Actor{ID: 3, Username: "stranger"}

	deal, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, stranger, deal.ID)
	assert.ErrorIs(t, err, utils.ErrAccessDenied)

	_, err = f.svc.ListMessages(ctx, stranger, deal.ID)
	assert.ErrorIs(t, err, utils.ErrAccessDenied)

	_, err = f.svc.SendMessage(ctx, stranger, deal.ID, "hi")
	assert.ErrorIs(t, err, utils.ErrAccessDenied)

	_, err = f.svc.UpdateStatus(ctx, stranger, deal.ID, model.DealStatusAccepted, nil)
	assert.ErrorIs(t, err, utils.ErrAccessDenied)

	// Missing deal reports not-found before access is considered
	_, err = f.svc.Get(ctx, stranger, 999)
	assert.ErrorIs(t, err, utils.ErrDealNotFound)
}

func TestDealService_FailedTransitionLeavesDealUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deal, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)
	notificationsBefore := len(f.notifications.created)
	messagesBefore := len(f.messageRepo.msgs)

	_, err = f.svc.UpdateStatus(ctx, f.buyer, deal.ID, model.DealStatusCompleted, nil)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)

	current, err := f.svc.Get(ctx, f.buyer, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStatusPending, current.Status)
	assert.Len(t, f.notifications.created, notificationsBefore, "failed transition must not notify")
	assert.Len(t, f.messageRepo.msgs, messagesBefore, "failed transition must not append a message")
}

func TestDealService_SendMessagePushesToCounterparty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	adminSink := &sink{}
	f.hub.Register(1, adminSink)

	deal, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)

	msg, err := f.svc.SendMessage(ctx, f.buyer, deal.ID, "is it still available?")
	require.NoError(t, err)
	assert.False(t, msg.IsSystem)

	var sawMessage bool
	for _, e := range adminSink.events {
		if e["type"] == ws.EventNewMessage {
			sawMessage = true
			assert.Equal(t, "is it still available?", e["message"])
		}
	}
	assert.True(t, sawMessage, "admin should receive the new_message event")
}

func TestDealService_ListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherBuyer := Actor{ID: 3, Username: "other"}
	f.dealRepo.deals[77] = &model.Deal{ID: 77, DealNo: "D77", BuyerID: 3, Status: model.DealStatusPending}

	_, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.List(ctx, f.buyer)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	others, err := f.svc.List(ctx, otherBuyer)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestDealService_CancelActiveDealsForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Three deals for the buyer: pending, payment_sent, completed
	first, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, second.ID, model.DealStatusAccepted, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.buyer, second.ID, model.DealStatusPaymentSent, nil)
	require.NoError(t, err)

	third, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, third.ID, model.DealStatusAccepted, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.buyer, third.ID, model.DealStatusPaymentSent, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, third.ID, model.DealStatusCompleted, nil)
	require.NoError(t, err)

	count, err := f.svc.CancelActiveDealsForUser(ctx, f.admin, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range []uint64{first.ID, second.ID} {
		d, err := f.svc.Get(ctx, f.admin, id)
		require.NoError(t, err)
		assert.Equal(t, model.DealStatusCancelled, d.Status)
	}

	untouched, err := f.svc.Get(ctx, f.admin, third.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStatusCompleted, untouched.Status, "terminal deals stay out of a ban sweep")

	// Non-admin cannot run the sweep
	_, err = f.svc.CancelActiveDealsForUser(ctx, f.buyer, f.buyer.ID)
	assert.ErrorIs(t, err, utils.ErrAccessDenied)
}

func TestDealService_InvalidTargetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deal, err := f.svc.Create(ctx, f.buyer, 5)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.admin, deal.ID, model.DealStatus("shipped"), nil)
	assert.True(t, errors.Is(err, utils.ErrInvalidTransition))
}

func TestDealService_FailedTransitionEmitsNoEmptyFromLabel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Fails before the row is ever seen, so there is no from status to report
	_, err := f.svc.UpdateStatus(ctx, f.admin, 999, model.DealStatusAccepted, nil)
	require.ErrorIs(t, err, utils.ErrDealNotFound)

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "deal_transition_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "from" {
					assert.NotEmpty(t, lp.GetValue(), "transition metric must never carry an empty from label")
				}
			}
		}
	}
}
