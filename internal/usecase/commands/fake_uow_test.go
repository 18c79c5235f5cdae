//go:build unit

package commands_test

import (
	"context"
	"sort"
	"time"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/domain/loan"
	"library-circulation/internal/domain/reservation"
	"library-circulation/internal/infra"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

// fakeUoW is an in-memory UnitOfWork with rollback-on-error semantics, so
// command tests can assert all-or-nothing behavior without a database.
type fakeUoW struct {
	store *fakeStore
}

type fakeStore struct {
	items        map[uuid.UUID]*catalog.Item
	carts        map[uuid.UUID][]shared.CartEntry
	reservations map[uuid.UUID]*reservation.Reservation
	loans        map[uuid.UUID]*loan.Loan
	events       []fakeEvent
}

type fakeEvent struct {
	Topic      string
	Payload    []byte
	OccurredAt time.Time
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		store: &fakeStore{
			items:        make(map[uuid.UUID]*catalog.Item),
			carts:        make(map[uuid.UUID][]shared.CartEntry),
			reservations: make(map[uuid.UUID]*reservation.Reservation),
			loans:        make(map[uuid.UUID]*loan.Loan),
		},
	}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	snapshot := u.store.clone()
	if err := fn(ctx, &fakeTx{store: u.store}); err != nil {
		*u.store = *snapshot
		return err
	}
	return nil
}

func (u *fakeUoW) CommandReads() shared.CommandReads {
	return &fakeReads{store: u.store}
}

// Direct store access for test setup and assertions.

func (u *fakeUoW) seedItem(item *catalog.Item) {
	u.store.items[item.ID()] = item
}

func (u *fakeUoW) item(id uuid.UUID) *catalog.Item {
	return u.store.items[id]
}

func (u *fakeUoW) reservation(id uuid.UUID) *reservation.Reservation {
	return u.store.reservations[id]
}

func (u *fakeUoW) loan(id uuid.UUID) *loan.Loan {
	return u.store.loans[id]
}

func (u *fakeUoW) seedLoan(l *loan.Loan) {
	u.store.loans[l.ID()] = l
}

func (u *fakeUoW) seedReservation(res *reservation.Reservation) {
	u.store.reservations[res.ID()] = res
}

func (u *fakeUoW) cartSize(userID uuid.UUID) int {
	return len(u.store.carts[userID])
}

func (u *fakeUoW) eventTopics() []string {
	topics := make([]string, len(u.store.events))
	for i, e := range u.store.events {
		topics[i] = e.Topic
	}
	return topics
}

func (s *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		items:        make(map[uuid.UUID]*catalog.Item, len(s.items)),
		carts:        make(map[uuid.UUID][]shared.CartEntry, len(s.carts)),
		reservations: make(map[uuid.UUID]*reservation.Reservation, len(s.reservations)),
		loans:        make(map[uuid.UUID]*loan.Loan, len(s.loans)),
		events:       append([]fakeEvent(nil), s.events...),
	}
	for id, item := range s.items {
		c.items[id] = cloneItem(item)
	}
	for userID, entries := range s.carts {
		c.carts[userID] = append([]shared.CartEntry(nil), entries...)
	}
	for id, res := range s.reservations {
		c.reservations[id] = cloneReservation(res)
	}
	for id, l := range s.loans {
		c.loans[id] = cloneLoan(l)
	}
	return c
}

func cloneItem(i *catalog.Item) *catalog.Item {
	return catalog.ReconstructItem(
		i.ID(), i.Title(), i.TotalCopies(), i.AvailableCopies(), i.CreatedAt(), i.UpdatedAt(),
	)
}

func cloneReservation(r *reservation.Reservation) *reservation.Reservation {
	return reservation.ReconstructReservation(
		r.ID(), r.UserID(), r.Status(), r.Items(),
		r.ReservedAt(), r.ExpiresAt(),
		copyTime(r.PickedUpAt()), copyTime(r.CancelledAt()),
		copyString(r.CancellationReason()),
		r.CreatedAt(), r.UpdatedAt(),
	)
}

func cloneLoan(l *loan.Loan) *loan.Loan {
	return loan.ReconstructLoan(
		l.ID(), l.UserID(), l.ItemID(),
		copyUUID(l.ReservationID()),
		l.BorrowedAt(), l.DueDate(),
		copyTime(l.ExtendedAt()), copyTime(l.ReturnedAt()),
		copyUUID(l.ReturnedBy()),
		l.FineAmount(), l.FinePaid(), copyTime(l.FinePaidAt()), copyString(l.FineWaivedReason()),
		l.CreatedAt(), l.UpdatedAt(),
	)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Items() shared.ItemRepository { return &fakeItemRepo{store: t.store} }
func (t *fakeTx) Carts() shared.CartRepository { return &fakeCartRepo{store: t.store} }
func (t *fakeTx) Reservations() shared.ReservationRepository {
	return &fakeReservationRepo{store: t.store}
}
func (t *fakeTx) Loans() shared.LoanRepository   { return &fakeLoanRepo{store: t.store} }
func (t *fakeTx) Events() shared.EventRepository { return &fakeEventRepo{store: t.store} }
func (t *fakeTx) Reads() shared.CommandReads     { return &fakeReads{store: t.store} }

type fakeItemRepo struct {
	store *fakeStore
}

func (r *fakeItemRepo) Create(_ context.Context, item *catalog.Item) error {
	r.store.items[item.ID()] = cloneItem(item)
	return nil
}

func (r *fakeItemRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	item, ok := r.store.items[id]
	if !ok {
		return nil, infra.WrapRepoErr("catalog item not found", nil, infra.KindNotFound)
	}
	return cloneItem(item), nil
}

func (r *fakeItemRepo) UpdateStock(_ context.Context, item *catalog.Item) error {
	if _, ok := r.store.items[item.ID()]; !ok {
		return infra.WrapRepoErr("catalog item not found", nil, infra.KindNotFound)
	}
	r.store.items[item.ID()] = cloneItem(item)
	return nil
}

func (r *fakeItemRepo) CopiesOut(_ context.Context, itemID uuid.UUID) (int32, error) {
	var out int32
	for _, l := range r.store.loans {
		if l.ItemID() == itemID && l.IsActive() {
			out++
		}
	}
	for _, res := range r.store.reservations {
		if !res.IsActive() {
			continue
		}
		for _, it := range res.Items() {
			if it.ItemID == itemID {
				out++
			}
		}
	}
	return out, nil
}

type fakeCartRepo struct {
	store *fakeStore
}

func (r *fakeCartRepo) Add(_ context.Context, userID, itemID uuid.UUID, addedAt time.Time) error {
	for _, entry := range r.store.carts[userID] {
		if entry.ItemID == itemID {
			return infra.WrapRepoErr("duplicate cart entry", nil, infra.KindDuplicateKey)
		}
	}
	r.store.carts[userID] = append(r.store.carts[userID], shared.CartEntry{
		UserID:  userID,
		ItemID:  itemID,
		AddedAt: addedAt,
	})
	return nil
}

func (r *fakeCartRepo) Remove(_ context.Context, userID, itemID uuid.UUID) error {
	entries := r.store.carts[userID]
	for i, entry := range entries {
		if entry.ItemID == itemID {
			r.store.carts[userID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return infra.WrapRepoErr("cart entry not found", nil, infra.KindNotFound)
}

func (r *fakeCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	delete(r.store.carts, userID)
	return nil
}

type fakeReservationRepo struct {
	store *fakeStore
}

func (r *fakeReservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	r.store.reservations[res.ID()] = cloneReservation(res)
	return nil
}

func (r *fakeReservationRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return cloneReservation(res), nil
}

func (r *fakeReservationRepo) Update(_ context.Context, res *reservation.Reservation) error {
	if _, ok := r.store.reservations[res.ID()]; !ok {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	r.store.reservations[res.ID()] = cloneReservation(res)
	return nil
}

type fakeLoanRepo struct {
	store *fakeStore
}

func (r *fakeLoanRepo) Create(_ context.Context, l *loan.Loan) error {
	r.store.loans[l.ID()] = cloneLoan(l)
	return nil
}

func (r *fakeLoanRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*loan.Loan, error) {
	l, ok := r.store.loans[id]
	if !ok {
		return nil, infra.WrapRepoErr("loan not found", nil, infra.KindNotFound)
	}
	return cloneLoan(l), nil
}

func (r *fakeLoanRepo) Update(_ context.Context, l *loan.Loan) error {
	if _, ok := r.store.loans[l.ID()]; !ok {
		return infra.WrapRepoErr("loan not found", nil, infra.KindNotFound)
	}
	r.store.loans[l.ID()] = cloneLoan(l)
	return nil
}

type fakeEventRepo struct {
	store *fakeStore
}

func (r *fakeEventRepo) Publish(_ context.Context, topic string, payload []byte, occurredAt time.Time) error {
	r.store.events = append(r.store.events, fakeEvent{
		Topic:      topic,
		Payload:    payload,
		OccurredAt: occurredAt,
	})
	return nil
}

type fakeReads struct {
	store *fakeStore
}

func (r *fakeReads) ItemByID(_ context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	item, ok := r.store.items[id]
	if !ok {
		return nil, infra.WrapRepoErr("catalog item not found", nil, infra.KindNotFound)
	}
	return &shared.ItemSnapshot{
		ID:              item.ID(),
		Title:           item.Title(),
		TotalCopies:     item.TotalCopies(),
		AvailableCopies: item.AvailableCopies(),
	}, nil
}

func (r *fakeReads) CartEntries(_ context.Context, userID uuid.UUID) ([]shared.CartEntry, error) {
	entries := append([]shared.CartEntry(nil), r.store.carts[userID]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

func (r *fakeReads) CartContains(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	for _, entry := range r.store.carts[userID] {
		if entry.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReads) ActiveReservationCount(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, res := range r.store.reservations {
		if res.UserID() == userID && res.IsActive() {
			count++
		}
	}
	return count, nil
}

func (r *fakeReads) UserHoldsItem(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	for _, l := range r.store.loans {
		if l.UserID() == userID && l.ItemID() == itemID && l.IsActive() {
			return true, nil
		}
	}
	for _, res := range r.store.reservations {
		if res.UserID() != userID || !res.IsActive() {
			continue
		}
		for _, it := range res.Items() {
			if it.ItemID == itemID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeReads) HasUnpaidFines(_ context.Context, userID uuid.UUID) (bool, error) {
	for _, l := range r.store.loans {
		if l.UserID() == userID && l.HasUnpaidFine() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReads) ReservationByID(_ context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return &shared.ReservationSnapshot{
		ID:        res.ID(),
		UserID:    res.UserID(),
		Status:    string(res.Status()),
		ExpiresAt: res.ExpiresAt(),
	}, nil
}

func (r *fakeReads) LoanByID(_ context.Context, id uuid.UUID) (*shared.LoanSnapshot, error) {
	l, ok := r.store.loans[id]
	if !ok {
		return nil, infra.WrapRepoErr("loan not found", nil, infra.KindNotFound)
	}
	return &shared.LoanSnapshot{
		ID:         l.ID(),
		UserID:     l.UserID(),
		ItemID:     l.ItemID(),
		DueDate:    l.DueDate(),
		Returned:   !l.IsActive(),
		FineAmount: l.FineAmount(),
		FinePaid:   l.FinePaid(),
	}, nil
}

func (r *fakeReads) ExpiredReservationIDs(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	type candidate struct {
		id        uuid.UUID
		expiresAt time.Time
	}
	var candidates []candidate
	for _, res := range r.store.reservations {
		if res.HasExpired(now) {
			candidates = append(candidates, candidate{id: res.ID(), expiresAt: res.ExpiresAt()})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].expiresAt.Before(candidates[j].expiresAt)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids, nil
}
