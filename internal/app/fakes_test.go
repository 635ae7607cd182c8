package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"itinerary_pricing/internal/domain"
)

// ---- fakes ----

type miss struct {
	id     int64
	status int
}

type fakeRepo struct {
	mu        sync.Mutex
	packages  map[int64]domain.Package
	pricings  map[int64]domain.ItineraryPricing
	proposals map[int64][]domain.Proposal
	misses    []miss
	saves     int
	getErr    error
}

func newFakeRepo(pkgs ...domain.Package) *fakeRepo {
	r := &fakeRepo{
		packages:  map[int64]domain.Package{},
		pricings:  map[int64]domain.ItineraryPricing{},
		proposals: map[int64][]domain.Proposal{},
	}
	for _, p := range pkgs {
		r.packages[p.ID] = p
	}
	return r
}

func (f *fakeRepo) SavePricing(ctx context.Context, p domain.ItineraryPricing, expected *int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.packages[p.PackageID]; !ok {
		return 0, domain.ErrNotFound
	}
	cur, exists := f.pricings[p.PackageID]
	if expected != nil {
		switch {
		case *expected == 0 && exists:
			return 0, domain.ErrConflict
		case *expected != 0 && (!exists || cur.Version != *expected):
			return 0, domain.ErrConflict
		}
	}
	p.Version = cur.Version + 1
	f.pricings[p.PackageID] = roundTrip(p)
	f.saves++
	return p.Version, nil
}

func (f *fakeRepo) ReplaceProposals(ctx context.Context, id int64, ps []domain.Proposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proposals[id] = ps
	return nil
}

func (f *fakeRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, miss{id: id, status: status})
	return nil
}

func (f *fakeRepo) GetPackage(ctx context.Context, id int64) (domain.Package, error) {
	if f.getErr != nil {
		return domain.Package{}, f.getErr
	}
	p, ok := f.packages[id]
	if !ok {
		return domain.Package{}, fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (f *fakeRepo) GetPricing(ctx context.Context, id int64) (domain.ItineraryPricing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pricings[id]
	if !ok {
		return domain.ItineraryPricing{}, domain.ErrNotFound
	}
	return roundTrip(p), nil
}

func (f *fakeRepo) ListProposals(ctx context.Context, id int64) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.proposals[id], nil
}

func (f *fakeRepo) ListPricedPackages(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	for id := range f.pricings {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// roundTrip stores records the way the database does: as JSON.
func roundTrip(p domain.ItineraryPricing) domain.ItineraryPricing {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var out domain.ItineraryPricing
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	out.Version = p.Version
	return out
}

type fakeSource struct {
	events     map[int64]domain.DayEvents
	maxOptions int
	err        error
	calls      int
}

func (s *fakeSource) GetDayEvents(ctx context.Context, id int64) (domain.DayEvents, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	ev, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (s *fakeSource) GetMaxHotelOptions(ctx context.Context) (int, error) {
	if s.maxOptions == 0 {
		return 0, errors.New("settings unavailable")
	}
	return s.maxOptions, nil
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

type fakePublisher struct {
	events []domain.PricingSavedEvent
	err    error
}

func (p *fakePublisher) PublishPricingSaved(ctx context.Context, ev domain.PricingSavedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

// ---- fixtures ----

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hotel(opt int, name, price string) domain.HotelOption {
	return domain.HotelOption{OptionNumber: opt, HotelName: name, Price: dec(price)}
}

func stay(day int, hotels ...domain.HotelOption) domain.DayEvent {
	return domain.DayEvent{Day: day, EventType: domain.EventAccommodation, Subject: "Stay", HotelOptions: hotels}
}

func goaTrip() domain.DayEvents {
	return domain.DayEvents{
		1: {
			{Day: 1, EventType: domain.EventActivity, Subject: "Beach walk"},
			stay(1, hotel(1, "Sea View", "5000"), hotel(2, "Grand Palace", "7000")),
		},
		2: {stay(2, hotel(1, "Hill Lodge", "4000"), hotel(2, "Summit Resort", "6000"))},
	}
}

var goaPackage = domain.Package{ID: 7, ItineraryName: "Goa Escape", Destinations: "Goa", Duration: 2, Adult: 2}
