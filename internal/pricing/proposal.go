package pricing

import "itinerary_pricing/internal/domain"

// BuildProposals produces one proposal per present option, ascending. Options without any
// priced night are skipped. Money is rounded to MoneyPlaces.
func BuildProposals(s *Session, pkg domain.Package) []domain.Proposal {
	g := s.Globals()
	var out []domain.Proposal
	for _, sum := range s.Options() {
		if len(sum.Nights) == 0 {
			continue
		}
		hotels := make([]domain.ProposalHotel, 0, len(sum.Nights))
		for _, n := range sum.Nights {
			hotels = append(hotels, domain.ProposalHotel{
				Day:     n.Day,
				Night:   n.Night,
				Hotel:   n.Hotel,
				Pricing: n.Pricing.Rounded(),
			})
		}
		t := sum.Totals.Rounded()
		out = append(out, domain.Proposal{
			OptionNumber:  sum.OptionNumber,
			ItineraryName: pkg.ItineraryName,
			Destination:   pkg.Destinations,
			Duration:      pkg.Duration,
			Price:         t.ClientPrice,
			Hotels:        hotels,
			Pricing: domain.ProposalPricing{
				BaseMarkup:       g.BaseMarkup,
				ExtraMarkup:      g.ExtraMarkup,
				Settings:         sum.Settings,
				FinalClientPrice: t.ClientPrice,
				TotalGross:       t.TotalGross,
				TotalTax:         t.TotalTax(),
				DiscountAmount:   t.DiscountAmount,
			},
		})
	}
	return out
}
