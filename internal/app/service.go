package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"itinerary_pricing/internal/adapters/observability"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

const (
	SourceAPI        = "api"
	SourceReconciler = "reconciler"
)

type Config struct {
	Defaults        domain.Rates
	MaxHotelOptions int
	CacheTTL        time.Duration
}

// PricingService loads a package's pricing into a fresh session per call, applies one
// operation and saves it back under optimistic versioning.
type PricingService struct {
	repo   domain.PricingRepository
	source domain.DayEventSource
	cache  domain.Cache
	events domain.EventPublisher
	cfg    Config
	now    func() time.Time
}

func NewPricingService(r domain.PricingRepository, src domain.DayEventSource, c domain.Cache, pub domain.EventPublisher, cfg Config) *PricingService {
	if cfg.MaxHotelOptions <= 0 {
		cfg.MaxHotelOptions = domain.DefaultMaxHotelOptions
	}
	return &PricingService{repo: r, source: src, cache: c, events: pub, cfg: cfg, now: time.Now}
}

// workspace is one loaded, reconciled pricing session.
type workspace struct {
	pkg        domain.Package
	session    *pricing.Session
	events     domain.DayEvents
	version    int64
	saved      bool
	maxOptions int
	seeded     int
}

func (s *PricingService) open(ctx context.Context, packageID int64) (*workspace, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetPricing(ctx, packageID)
	saved := true
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec, saved = domain.EmptyPricing(packageID, s.cfg.Defaults), false
	case err != nil:
		return nil, err
	}
	events, err := s.dayEvents(ctx, packageID)
	if err != nil {
		return nil, err
	}
	maxOptions := s.maxHotelOptions(ctx)

	sess := pricing.FromRecord(rec)
	seeded := sess.Reconcile(events, maxOptions)
	return &workspace{
		pkg:        pkg,
		session:    sess,
		events:     events,
		version:    rec.Version,
		saved:      saved,
		maxOptions: maxOptions,
		seeded:     seeded,
	}, nil
}

func dayEventsKey(packageID int64) string { return fmt.Sprintf("dayevents:%d", packageID) }

const maxOptionsKey = "settings:max_hotel_options"

func (s *PricingService) dayEvents(ctx context.Context, packageID int64) (domain.DayEvents, error) {
	key := dayEventsKey(packageID)
	var ev domain.DayEvents
	if ok, _ := s.cache.Get(ctx, key, &ev); ok {
		return ev, nil
	}
	ev, err := s.source.GetDayEvents(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("day events for package %d: %w", packageID, err)
	}
	_ = s.cache.Set(ctx, key, ev, int(s.cfg.CacheTTL.Seconds()))
	return ev, nil
}

// maxHotelOptions asks the builder for the ceiling and falls back to configuration.
func (s *PricingService) maxHotelOptions(ctx context.Context) int {
	var n int
	if ok, _ := s.cache.Get(ctx, maxOptionsKey, &n); ok && n > 0 {
		return n
	}
	n, err := s.source.GetMaxHotelOptions(ctx)
	if err != nil || n <= 0 {
		log.Warn().Err(err).Int("fallback", s.cfg.MaxHotelOptions).Msg("max hotel options unavailable")
		return s.cfg.MaxHotelOptions
	}
	_ = s.cache.Set(ctx, maxOptionsKey, n, int(s.cfg.CacheTTL.Seconds()))
	return n
}

// save persists the workspace session, then refreshes the proposal snapshot and announces
// the new version. Only the pricing write can fail the call.
func (s *PricingService) save(ctx context.Context, ws *workspace, expected *int64, source string) (int64, error) {
	rec := ws.session.Record(ws.pkg.ID)
	v, err := s.repo.SavePricing(ctx, rec, expected)
	switch {
	case errors.Is(err, domain.ErrConflict):
		observability.ObserveSave(source, "conflict")
		return 0, err
	case err != nil:
		observability.ObserveSave(source, "error")
		return 0, err
	}
	observability.ObserveSave(source, "ok")
	ws.version, ws.saved = v, true

	if err := s.repo.ReplaceProposals(ctx, ws.pkg.ID, pricing.BuildProposals(ws.session, ws.pkg)); err != nil {
		log.Error().Err(err).Int64("package_id", ws.pkg.ID).Int64("version", v).Msg("proposal snapshot failed")
	}
	if err := s.events.PublishPricingSaved(ctx, savedEvent(ws, source, s.now())); err != nil {
		log.Warn().Err(err).Int64("package_id", ws.pkg.ID).Msg("pricing saved event not delivered")
	}
	log.Info().Int64("package_id", ws.pkg.ID).Int64("version", v).Str("source", source).Msg("pricing saved")
	return v, nil
}
