package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/payment"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
	"github.com/iliyamo/advocate-booking/internal/storage"
)

// memDB is a single in-memory store behind all fake repositories.  One
// mutex stands in for the row locks of the MySQL implementation.
type memDB struct {
	mu       sync.Mutex
	nextID   uint64
	accounts map[uint64]model.Account
	profiles map[uint64]model.AdvocateProfile
	bookings map[uint64]model.Booking
	docs     map[uint64]model.Document
	reviews  map[uint64]model.Review // by booking id
	payments map[string]model.AdvocatePayment
	tokens   map[string]fakeToken
}

type fakeToken struct {
	accountID uint64
	exp       time.Time
	revoked   bool
}

func newMemDB() *memDB {
	return &memDB{
		accounts: map[uint64]model.Account{},
		profiles: map[uint64]model.AdvocateProfile{},
		bookings: map[uint64]model.Booking{},
		docs:     map[uint64]model.Document{},
		reviews:  map[uint64]model.Review{},
		payments: map[string]model.AdvocatePayment{},
		tokens:   map[string]fakeToken{},
	}
}

func (m *memDB) id() uint64 { m.nextID++; return m.nextID }

func (m *memDB) activate(id uint64) {
	a := m.accounts[id]
	d := *a.Advocate
	d.Active = true
	a.Advocate = &d
	m.accounts[id] = a
}

type fakeAccounts struct{ *memDB }

func (f fakeAccounts) conflict(a *model.Account) error {
	for _, o := range f.accounts {
		if strings.EqualFold(o.Email, a.Email) {
			return repository.ErrEmailExists
		}
		if a.Advocate != nil && o.Advocate != nil && o.Advocate.BarNumber == a.Advocate.BarNumber {
			return repository.ErrBarNumberExists
		}
	}
	return nil
}

func (f fakeAccounts) CreateClient(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conflict(a); err != nil {
		return err
	}
	a.ID = f.id()
	f.accounts[a.ID] = *a
	return nil
}

func (f fakeAccounts) CreateAdvocate(_ context.Context, a *model.Account, p *model.AdvocateProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conflict(a); err != nil {
		return err
	}
	a.ID = f.id()
	p.AccountID = a.ID
	f.accounts[a.ID] = *a
	f.profiles[a.ID] = *p
	return nil
}

func (f fakeAccounts) GetByEmail(_ context.Context, role model.Role, email string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Role == role && strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (f fakeAccounts) GetByBarNumber(_ context.Context, bar string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Advocate != nil && a.Advocate.BarNumber == bar {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (f fakeAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

type fakeTokens struct{ *memDB }

func (f fakeTokens) StoreRefresh(_ context.Context, id uint64, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[hash] = fakeToken{accountID: id, exp: exp}
	return nil
}

func (f fakeTokens) Consume(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[hash]
	if !ok || t.revoked || !time.Now().Before(t.exp) {
		return 0, repository.ErrNotFound
	}
	t.revoked = true
	f.tokens[hash] = t
	return t.accountID, nil
}

func (f fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[hash]; ok {
		t.revoked = true
		f.tokens[hash] = t
	}
	return nil
}

func (f fakeTokens) RevokeAllForAccount(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, t := range f.tokens {
		if t.accountID == id {
			t.revoked = true
			f.tokens[h] = t
		}
	}
	return nil
}

type fakeProfiles struct{ *memDB }

func (f fakeProfiles) GetByAccountID(_ context.Context, id uint64) (model.AdvocateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return model.AdvocateProfile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f fakeProfiles) Upsert(_ context.Context, id uint64, u model.ProfileUpdate, activate bool) (model.AdvocateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profiles[id]
	p.AccountID = id
	p.Specialization, p.Location, p.Bio = u.Specialization, u.Location, u.Bio
	p.ExperienceYears = uint32(u.ExperienceYears)
	p.ConsultationFee = u.ConsultationFee
	f.profiles[id] = p
	if activate {
		f.activate(id)
	}
	return p, nil
}

func (f fakeProfiles) cards() []model.AdvocateCard {
	out := []model.AdvocateCard{}
	for id, a := range f.accounts {
		if a.IsActiveAdvocate() {
			out = append(out, model.AdvocateCard{Account: a, Profile: f.profiles[id]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.ID < out[j].Account.ID })
	return out
}

func (f fakeProfiles) Search(_ context.Context, q repository.AdvocateSearchQuery) ([]model.AdvocateCard, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := strings.ToLower(q.Text)
	var hits []model.AdvocateCard
	for _, c := range f.cards() {
		hay := strings.ToLower(strings.Join([]string{c.Account.Name, c.Account.Email, c.Profile.Location,
			c.Profile.Specialization, c.Account.Advocate.BarNumber}, " "))
		if strings.Contains(hay, t) {
			hits = append(hits, c)
		}
	}
	start := (q.Page - 1) * q.PageSize
	if start > len(hits) {
		start = len(hits)
	}
	end := start + q.PageSize
	if end > len(hits) {
		end = len(hits)
	}
	return hits[start:end], int64(len(hits)), nil
}

func (f fakeProfiles) Featured(_ context.Context, limit int) ([]model.AdvocateCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cards()
	if len(c) > limit {
		c = c[:limit]
	}
	return c, nil
}

func (f fakeProfiles) GetCard(_ context.Context, id uint64) (model.AdvocateCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || !a.IsAdvocate() {
		return model.AdvocateCard{}, repository.ErrNotFound
	}
	return model.AdvocateCard{Account: a, Profile: f.profiles[id]}, nil
}

type fakeBookings struct{ *memDB }

func (f fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	b.Status = model.StatusPending
	b.CreatedAt = time.Now().UTC().Add(time.Duration(b.ID) * time.Second)
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f fakeBookings) list(keep func(model.Booking) bool) []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Booking{}
	for _, b := range f.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f fakeBookings) ListByClient(_ context.Context, id uint64) ([]model.Booking, error) {
	return f.list(func(b model.Booking) bool { return b.ClientID == id }), nil
}

func (f fakeBookings) ListByAdvocate(_ context.Context, id uint64) ([]model.Booking, error) {
	return f.list(func(b model.Booking) bool { return b.AdvocateID == id }), nil
}

func (f fakeBookings) Mutate(_ context.Context, id uint64, fn func(*model.Booking) error) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	if err := fn(&b); err != nil {
		return model.Booking{}, err
	}
	f.bookings[id] = b
	return b, nil
}

type fakeReviews struct{ *memDB }

func (f fakeReviews) Submit(_ context.Context, bookingID uint64, build repository.ReviewBuilder) (model.Review, decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return model.Review{}, decimal.Zero, repository.ErrNotFound
	}
	_, reviewed := f.reviews[bookingID]
	rv, err := build(b, reviewed)
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}
	rv.ID = f.id()
	rv.CreatedAt = time.Now().UTC().Add(time.Duration(rv.ID) * time.Second)
	f.reviews[bookingID] = rv

	sum, n := 0, 0
	for _, r := range f.reviews {
		if r.AdvocateID == b.AdvocateID {
			sum += r.Rating
			n++
		}
	}
	avg := decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(n)), 2)
	p := f.profiles[b.AdvocateID]
	p.AccountID = b.AdvocateID
	p.Rating = avg
	f.profiles[b.AdvocateID] = p
	return rv, avg, nil
}

func (f fakeReviews) GetByBooking(_ context.Context, bookingID uint64) (model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[bookingID]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return rv, nil
}

func (f fakeReviews) ListByAdvocate(_ context.Context, id uint64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Review{}
	for _, r := range f.reviews {
		if r.AdvocateID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeDocuments struct {
	*memDB
	fail error
}

func (f *fakeDocuments) Create(_ context.Context, d *model.Document) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.id()
	d.UploadedAt = time.Now().UTC()
	f.docs[d.ID] = *d
	return nil
}

func (f *fakeDocuments) GetByID(_ context.Context, id uint64) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return model.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocuments) ListByBooking(_ context.Context, id uint64) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Document{}
	for _, d := range f.docs {
		if d.BookingID == id {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memBlobs struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{objs: map[string][]byte{}} }

func (m *memBlobs) Put(_ context.Context, key string, r io.Reader, max int64) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if max > 0 && int64(len(b)) > max {
		return 0, storage.ErrTooLarge
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = b
	return int64(len(b)), nil
}

func (m *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

type fakePayments struct{ *memDB }

func (f fakePayments) Create(_ context.Context, p *model.AdvocatePayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.payments[p.OrderID] = *p
	return nil
}

func (f fakePayments) Settle(_ context.Context, accountID uint64, orderID string, fn func(*model.AdvocatePayment) error) (model.AdvocatePayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok || p.AccountID != accountID {
		return model.AdvocatePayment{}, repository.ErrNotFound
	}
	fnErr := fn(&p)
	if fnErr != nil && p.Status != model.PaymentFailed {
		return model.AdvocatePayment{}, fnErr
	}
	f.payments[orderID] = p
	if p.Status == model.PaymentPaid {
		f.activate(accountID)
	}
	return p, fnErr
}

type fakeGateway struct {
	secret string
	orders int
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal) (payment.Order, error) {
	g.orders++
	return payment.Order{ID: "order_" + string(rune('A'+g.orders)), Amount: amount.Shift(2).IntPart(), Currency: "INR"}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, sig string) bool {
	return payment.Sign(g.secret, orderID, paymentID) == sig
}

type recordedEvents struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordedEvents) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
