package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"itinerary_pricing/internal/adapters/observability"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

// View returns the package's pricing reconciled against the current day events.
// Nothing is saved; lines seeded here only become permanent with the next write.
func (s *PricingService) View(ctx context.Context, packageID int64) (PricingView, error) {
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return PricingView{}, err
	}
	return viewOf(ws), nil
}

// QuotationView is a rendered quotation and the pricing version it was rendered from.
type QuotationView struct {
	Version int64 `json:"version"`
	pricing.Quotation
}

func quotationPrefix(packageID int64) string { return fmt.Sprintf("quote:%d:", packageID) }

func quotationKey(packageID, version int64, option int) string {
	return fmt.Sprintf("%s%d:%d", quotationPrefix(packageID), version, option)
}

// Quotation renders one option for the client. With no option the lowest present one is used.
// Rendered quotations are cached per saved version.
func (s *PricingService) Quotation(ctx context.Context, packageID int64, option *int) (QuotationView, error) {
	if option != nil && *option < 1 {
		return QuotationView{}, fmt.Errorf("option %d: %w", *option, domain.ErrInvalidInput)
	}

	// Unsaved pricing has no stable version to key on.
	var version int64
	rec, err := s.repo.GetPricing(ctx, packageID)
	switch {
	case err == nil:
		version = rec.Version
	case !errors.Is(err, domain.ErrNotFound):
		return QuotationView{}, err
	}
	if version > 0 && option != nil {
		var qv QuotationView
		if ok, _ := s.cache.Get(ctx, quotationKey(packageID, version, *option), &qv); ok {
			observability.ObserveQuotation(true)
			return qv, nil
		}
	}

	ws, err := s.open(ctx, packageID)
	if err != nil {
		return QuotationView{}, err
	}
	p := pricing.NewPresenter(ws.session, ws.events)
	if option != nil {
		if !slices.Contains(p.Options(), *option) {
			return QuotationView{}, fmt.Errorf("option %d of package %d: %w", *option, packageID, domain.ErrNotFound)
		}
		p.SelectOption(*option)
	}
	q, ok := p.Quotation(ws.pkg)
	if !ok {
		return QuotationView{}, fmt.Errorf("package %d has no hotel options: %w", packageID, domain.ErrNotFound)
	}
	observability.ObserveQuotation(false)

	qv := QuotationView{Version: ws.version, Quotation: q}
	if ws.saved && ws.version > 0 {
		_ = s.cache.Set(ctx, quotationKey(packageID, ws.version, q.OptionNumber), qv, int(s.cfg.CacheTTL.Seconds()))
	}
	return qv, nil
}

// Proposals returns the stored proposal snapshot, or builds one from the live pricing when
// the package has not been saved since proposals were introduced.
func (s *PricingService) Proposals(ctx context.Context, packageID int64) ([]domain.Proposal, error) {
	ps, err := s.repo.ListProposals(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		return ps, nil
	}
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return nil, err
	}
	return pricing.BuildProposals(ws.session, ws.pkg), nil
}

// Export returns the package and its option summaries for spreadsheet rendering.
func (s *PricingService) Export(ctx context.Context, packageID int64) (domain.Package, []pricing.OptionSummary, error) {
	ws, err := s.open(ctx, packageID)
	if err != nil {
		return domain.Package{}, nil, err
	}
	return ws.pkg, ws.session.Options(), nil
}
