package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

type LineEdit struct {
	Option int
	Day    int
	Index  int
	Field  domain.LineField
	Value  any
}

type MarkupInput struct {
	Option int
	Base   any
	Extra  any
	Scope  pricing.Scope
}

// mutate runs one session operation against the latest saved version and saves the result.
// A concurrent save in between makes this fail with ErrConflict.
func (s *PricingService) mutate(ctx context.Context, packageID int64, fn func(*pricing.Session)) (PricingView, error) {
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return PricingView{}, err
	}
	fn(ws.session)
	expected := ws.version
	if _, err := s.save(ctx, ws, &expected, SourceAPI); err != nil {
		return PricingView{}, err
	}
	return viewOf(ws), nil
}

func (s *PricingService) EditLine(ctx context.Context, packageID int64, e LineEdit) (PricingView, error) {
	if e.Option < 1 || e.Day < 1 || e.Index < 0 {
		return PricingView{}, fmt.Errorf("line %d-%d-%d: %w", e.Option, e.Day, e.Index, domain.ErrInvalidInput)
	}
	field, ok := domain.ParseLineField(string(e.Field))
	if !ok {
		return PricingView{}, fmt.Errorf("field %q: %w", e.Field, domain.ErrInvalidInput)
	}
	key := domain.LineKey{Option: e.Option, Day: e.Day, Index: e.Index}
	return s.mutate(ctx, packageID, func(sess *pricing.Session) {
		sess.EditLine(key, field, e.Value)
	})
}

func (s *PricingService) ApplyMarkup(ctx context.Context, packageID int64, in MarkupInput) (PricingView, error) {
	if in.Scope == pricing.ScopeOption && in.Option < 1 {
		return PricingView{}, fmt.Errorf("option %d: %w", in.Option, domain.ErrInvalidInput)
	}
	return s.mutate(ctx, packageID, func(sess *pricing.Session) {
		sess.ApplyMarkup(in.Option, in.Base, in.Extra, in.Scope)
	})
}

func (s *PricingService) SetGlobalRate(ctx context.Context, packageID int64, field domain.GlobalField, value any) (PricingView, error) {
	f, ok := domain.ParseGlobalField(string(field))
	if !ok {
		return PricingView{}, fmt.Errorf("field %q: %w", field, domain.ErrInvalidInput)
	}
	return s.mutate(ctx, packageID, func(sess *pricing.Session) {
		sess.SetGlobalRate(f, value)
	})
}

func (s *PricingService) SetOptionGst(ctx context.Context, packageID int64, option int, field domain.GstField, value any) (PricingView, error) {
	if option < 1 {
		return PricingView{}, fmt.Errorf("option %d: %w", option, domain.ErrInvalidInput)
	}
	f, ok := domain.ParseGstField(string(field))
	if !ok {
		return PricingView{}, fmt.Errorf("field %q: %w", field, domain.ErrInvalidInput)
	}
	return s.mutate(ctx, packageID, func(sess *pricing.Session) {
		sess.SetOptionGstSetting(option, f, value)
	})
}

// SetClientPrice overrides an option's client price; a nil value clears the override.
func (s *PricingService) SetClientPrice(ctx context.Context, packageID int64, option int, value any) (PricingView, error) {
	if option < 1 {
		return PricingView{}, fmt.Errorf("option %d: %w", option, domain.ErrInvalidInput)
	}
	return s.mutate(ctx, packageID, func(sess *pricing.Session) {
		sess.SetFinalClientPrice(option, value)
	})
}

// Replace stores a full pricing document. With a version it only succeeds against that
// version; without one the last writer wins.
func (s *PricingService) Replace(ctx context.Context, packageID int64, rec domain.ItineraryPricing, version *int64) (PricingView, error) {
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return PricingView{}, err
	}
	rec.PackageID = packageID
	ws.session = pricing.FromRecord(rec)
	ws.session.Reconcile(ws.events, ws.maxOptions)
	if _, err := s.save(ctx, ws, version, SourceAPI); err != nil {
		return PricingView{}, err
	}
	return viewOf(ws), nil
}

// Reconcile refetches day events and saves when new hotel lines had to be seeded.
// Rendered quotations are dropped even when nothing is saved, since they embed the old events.
// It returns the number of seeded lines.
func (s *PricingService) Reconcile(ctx context.Context, packageID int64, source string) (PricingView, int, error) {
	_ = s.cache.Del(ctx, dayEventsKey(packageID))
	if err := s.cache.DelPrefix(ctx, quotationPrefix(packageID)); err != nil {
		log.Warn().Err(err).Int64("package_id", packageID).Msg("dropping cached quotations failed")
	}
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return PricingView{}, 0, err
	}
	if ws.seeded > 0 {
		expected := ws.version
		if _, err := s.save(ctx, ws, &expected, source); err != nil {
			return PricingView{}, 0, err
		}
	}
	return viewOf(ws), ws.seeded, nil
}

// ReconcileService keeps saved pricings in step with the builder for batch runs.
type ReconcileService struct {
	pricing *PricingService
	repo    domain.PricingRepository
}

func NewReconcileService(p *PricingService, r domain.PricingRepository) *ReconcileService {
	return &ReconcileService{pricing: p, repo: r}
}

// ReconcilePackage seeds lines for hotels added in the builder since the last save.
// Packages or day events the builder no longer serves are recorded as misses, not errors.
func (s *ReconcileService) ReconcilePackage(ctx context.Context, packageID int64) (int, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var seeded int
		_, seeded, err = s.pricing.Reconcile(ctx, packageID, SourceReconciler)
		switch {
		case err == nil:
			return seeded, nil
		case errors.Is(err, domain.ErrConflict):
			log.Debug().Int64("package_id", packageID).Int("attempt", attempt+1).Msg("reconcile lost a race, retrying")
			continue
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, packageID, 404, "not found")
			return 0, nil
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, packageID, 403, "forbidden")
			return 0, nil
		default:
			return 0, err
		}
	}
	return 0, err
}

// ListPricedPackages pages through packages that have saved pricing.
func (s *ReconcileService) ListPricedPackages(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	return s.repo.ListPricedPackages(ctx, afterID, limit)
}
