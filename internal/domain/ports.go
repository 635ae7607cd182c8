package domain

import "context"

type PricingRepository interface {
	// Write paths
	// SavePricing upserts the record and returns the new version. When expectedVersion is
	// non-nil the write only succeeds if the stored version still matches (ErrConflict otherwise).
	SavePricing(ctx context.Context, p ItineraryPricing, expectedVersion *int64) (int64, error)
	ReplaceProposals(ctx context.Context, packageID int64, ps []Proposal) error
	LogMiss(ctx context.Context, packageID int64, status int, reason string) error

	// Read paths
	GetPackage(ctx context.Context, id int64) (Package, error)
	// GetPricing returns ErrNotFound when the package has never been priced.
	GetPricing(ctx context.Context, packageID int64) (ItineraryPricing, error)
	ListProposals(ctx context.Context, packageID int64) ([]Proposal, error)
	ListPricedPackages(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

// DayEventSource is the itinerary builder: owner of day events and the option ceiling.
type DayEventSource interface {
	GetDayEvents(ctx context.Context, packageID int64) (DayEvents, error)
	GetMaxHotelOptions(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// DelPrefix removes every key starting with prefix.
	DelPrefix(ctx context.Context, prefix string) error
}

type EventPublisher interface {
	PublishPricingSaved(ctx context.Context, ev PricingSavedEvent) error
}
