package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/virtuve/class-booking/internal/model"
	"github.com/virtuve/class-booking/internal/payment"
	"github.com/virtuve/class-booking/internal/repository"
)

// fakeClassStore is an in-memory ClassStore whose reserve/release are
// guarded by a mutex, mirroring the conditional-update semantics of the
// MySQL ledger.
type fakeClassStore struct {
	mu      sync.Mutex
	classes map[uint64]*model.Class

	reserveCalls int
	releaseCalls int
	releaseErr   error
}

func newFakeClassStore(classes ...*model.Class) *fakeClassStore {
	s := &fakeClassStore{classes: make(map[uint64]*model.Class)}
	for _, cl := range classes {
		cp := *cl
		s.classes[cl.ID] = &cp
	}
	return s
}

func (s *fakeClassStore) GetByID(_ context.Context, id uint64) (*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.classes[id]
	if !ok {
		return nil, repository.ErrClassNotFound
	}
	cp := *cl
	return &cp, nil
}

func (s *fakeClassStore) ReserveSpots(_ context.Context, classID uint64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserveCalls++
	cl, ok := s.classes[classID]
	if !ok {
		return repository.ErrClassNotFound
	}
	if cl.Booked+count > cl.Capacity {
		return repository.ErrCapacityExceeded
	}
	cl.Booked += count
	return nil
}

func (s *fakeClassStore) ReleaseSpots(_ context.Context, classID uint64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseCalls++
	if s.releaseErr != nil {
		return s.releaseErr
	}
	cl, ok := s.classes[classID]
	if !ok {
		return repository.ErrClassNotFound
	}
	cl.Booked -= count
	if cl.Booked < 0 {
		cl.Booked = 0
	}
	return nil
}

func (s *fakeClassStore) booked(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[id].Booked
}

// fakeBookingStore is an in-memory BookingStore.
type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking

	createErr error
}

func newFakeBookingStore(seed ...*model.Booking) *fakeBookingStore {
	s := &fakeBookingStore{bookings: make(map[uint64]*model.Booking)}
	for _, b := range seed {
		cp := *b
		s.bookings[b.ID] = &cp
		if b.ID > s.nextID {
			s.nextID = b.ID
		}
	}
	return s
}

func (s *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	b.ID = s.nextID
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBookingStore) ListAll(_ context.Context) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (s *fakeBookingStore) ListByEmail(_ context.Context, email string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.Email == email {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) UpdateStatus(_ context.Context, id uint64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrBookingNotFound
	}
	b.Status = to
	return nil
}

func (s *fakeBookingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type refundCall struct {
	ref         string
	amountMinor int64
}

// fakeGateway is an in-memory payment.Gateway that records refunds.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*payment.Intent
	refunds []refundCall
	nextID  int

	createErr error
	refundErr error
}

func newFakeGateway(intents ...*payment.Intent) *fakeGateway {
	g := &fakeGateway{intents: make(map[string]*payment.Intent)}
	for _, in := range intents {
		cp := *in
		g.intents[in.ID] = &cp
	}
	return g
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	in := &payment.Intent{
		ID:           fmt.Sprintf("pi_test_%d", g.nextID),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.nextID),
		Status:       "requires_payment_method",
		AmountMinor:  req.AmountMinor,
	}
	g.intents[in.ID] = in
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentRef string, amountMinor int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{ref: paymentRef, amountMinor: amountMinor})
	return nil
}

func (g *fakeGateway) VerifyWebhook(_ []byte, _ string) (*payment.WebhookEvent, error) {
	return &payment.WebhookEvent{}, nil
}

func (g *fakeGateway) refundsMade() []refundCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]refundCall, len(g.refunds))
	copy(out, g.refunds)
	return out
}

// fakeNotifier records deliveries.
type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []uint64
	cancelled []uint64
}

func (n *fakeNotifier) BookingConfirmed(_ context.Context, b *model.Booking, _ *model.Class) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
	return nil
}

func (n *fakeNotifier) BookingCancelled(_ context.Context, b *model.Booking, _ *model.Class) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
	return nil
}
