package app

import (
	"time"

	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

// PricingView is the working state of a package's pricing as the editor sees it.
type PricingView struct {
	Package         domain.Package          `json:"package"`
	Version         int64                   `json:"version"`
	Saved           bool                    `json:"saved"`
	MaxHotelOptions int                     `json:"max_hotel_options"`
	Globals         domain.Rates            `json:"globals"`
	Options         []pricing.OptionSummary `json:"options"`
}

func viewOf(ws *workspace) PricingView {
	return PricingView{
		Package:         ws.pkg,
		Version:         ws.version,
		Saved:           ws.saved,
		MaxHotelOptions: ws.maxOptions,
		Globals:         ws.session.Globals(),
		Options:         ws.session.Options(),
	}
}

func savedEvent(ws *workspace, source string, at time.Time) domain.PricingSavedEvent {
	nums := ws.session.OptionNumbers()
	snaps := make([]domain.OptionSnapshot, 0, len(nums))
	for _, opt := range nums {
		t := ws.session.ComputeOptionTotals(opt)
		snaps = append(snaps, domain.OptionSnapshot{
			OptionNumber: opt,
			FinalTotal:   t.FinalTotal,
			ClientPrice:  t.ClientPrice,
		})
	}
	return domain.PricingSavedEvent{
		PackageID: ws.pkg.ID,
		Version:   ws.version,
		Source:    source,
		Options:   snaps,
		SavedAt:   at.UTC().Format(time.RFC3339),
	}
}
