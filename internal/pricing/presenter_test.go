package pricing_test

import (
	"encoding/json"
	"testing"

	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

func TestPresenter_DefaultsToLowestPresentOption(t *testing.T) {
	events := domain.DayEvents{
		1: {stay(1, hotel(3, "C", "300"), hotel(2, "B", "200"))},
	}
	s := pricing.NewSession(domain.Rates{})
	s.Reconcile(events, 4)
	p := pricing.NewPresenter(s, events)

	opt, ok := p.Selected()
	if !ok || opt != 2 {
		t.Fatalf("want default option 2, got %d (ok=%v)", opt, ok)
	}

	p.SelectOption(3)
	if opt, _ := p.Selected(); opt != 3 {
		t.Fatalf("want 3 after selection, got %d", opt)
	}
}

func TestPresenter_NothingToSelect(t *testing.T) {
	events := domain.DayEvents{1: {{EventType: domain.EventActivity, Subject: "Walk"}}}
	s := pricing.NewSession(domain.Rates{})
	s.Reconcile(events, 4)
	p := pricing.NewPresenter(s, events)

	if _, ok := p.Selected(); ok {
		t.Fatalf("no option should be selected")
	}
	if _, ok := p.Quotation(domain.Package{}); ok {
		t.Fatalf("no quotation without options")
	}
	if len(p.FilteredDayEvents()) != 0 {
		t.Fatalf("expected empty view")
	}
}

func TestPresenter_FilterKeepsOnlySelectedHotels(t *testing.T) {
	events := twoDayTrip()
	s := pricing.NewSession(gst18())
	s.Reconcile(events, 4)
	p := pricing.NewPresenter(s, events)
	p.SelectOption(2)

	view := p.FilteredDayEvents()
	if len(view) != 2 {
		t.Fatalf("want 2 days, got %d", len(view))
	}
	day1 := view[1]
	if len(day1) != 2 || day1[0].EventType != domain.EventActivity || day1[0].Subject != "City tour" {
		t.Fatalf("activity should pass through unchanged: %+v", day1)
	}
	for day, evs := range view {
		for _, ev := range evs {
			if ev.EventType != domain.EventAccommodation {
				continue
			}
			if len(ev.HotelOptions) != 1 || ev.HotelOptions[0].OptionNumber != 2 {
				t.Fatalf("day %d: unexpected hotels %+v", day, ev.HotelOptions)
			}
		}
	}
	if len(events[1][1].HotelOptions) != 2 {
		t.Fatalf("input events must not be modified")
	}
}

func TestFilterDayEvents_DropsEmptyAccommodationAndDays(t *testing.T) {
	events := domain.DayEvents{
		1: {stay(1, hotel(1, "A", "1"))},
		2: {stay(2, hotel(2, "B", "1")), {EventType: domain.EventFlight, Subject: "Fly home"}},
	}
	view := pricing.FilterDayEvents(events, 2)
	if _, ok := view[1]; ok {
		t.Fatalf("day 1 has nothing for option 2 and should be omitted")
	}
	if len(view[2]) != 2 {
		t.Fatalf("day 2 should keep both events, got %+v", view[2])
	}

	view = pricing.FilterDayEvents(events, 1)
	if len(view[2]) != 1 || view[2][0].EventType != domain.EventFlight {
		t.Fatalf("accommodation without option 1 hotels should be dropped: %+v", view[2])
	}
}

func TestPresenter_BreakdownMatchesSessionTotals(t *testing.T) {
	events := twoDayTrip()
	s := pricing.NewSession(gst18())
	s.Reconcile(events, 4)
	s.SetOptionGstSetting(1, domain.FieldDiscount, 5)
	p := pricing.NewPresenter(s, events)

	b := p.RenderBreakdown(1)
	want := s.ComputeOptionTotals(1)
	if !b.Totals.FinalTotal.Equal(want.FinalTotal) || !b.Totals.TotalGross.Equal(want.TotalGross) ||
		!b.Totals.DiscountAmount.Equal(want.DiscountAmount) || !b.Totals.ClientPrice.Equal(want.ClientPrice) {
		t.Fatalf("breakdown totals differ from session totals: %+v vs %+v", b.Totals, want)
	}
	if len(b.Components) != 5 {
		t.Fatalf("want 5 components, got %d", len(b.Components))
	}
	names := []string{"CGST", "SGST", "IGST", "TCS", "Discount"}
	for i, c := range b.Components {
		if c.Name != names[i] {
			t.Fatalf("component %d: got %s want %s", i, c.Name, names[i])
		}
	}
	assertDec(t, "cgst rate", b.Components[0].Rate, "9")
	assertDec(t, "discount amount", b.Components[4].Amount, "450")
	if !b.Components[4].Deduction {
		t.Fatalf("discount should be a deduction")
	}

	vis := b.Visible()
	if len(vis) != 3 {
		t.Fatalf("igst and tcs are zero and should be hidden, got %+v", vis)
	}
	if b.Overridden {
		t.Fatalf("no override set")
	}

	s.SetFinalClientPrice(1, 11111)
	b = p.RenderBreakdown(1)
	if !b.Overridden {
		t.Fatalf("override should be reported")
	}
	assertDec(t, "client price", b.Totals.ClientPrice, "11111")
}

func TestPresenter_QuotationSurvivesJSON(t *testing.T) {
	events := twoDayTrip()
	s := pricing.NewSession(gst18())
	s.Reconcile(events, 4)
	p := pricing.NewPresenter(s, events)

	q, ok := p.Quotation(domain.Package{ID: 9, ItineraryName: "Goa Escape", Duration: 2})
	if !ok || q.OptionNumber != 1 {
		t.Fatalf("unexpected quotation %+v", q)
	}
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back pricing.Quotation
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	assertDec(t, "final total", back.Breakdown.Totals.FinalTotal, "10620")
	if len(back.DayEvents[2]) != 1 || back.DayEvents[2][0].HotelOptions[0].HotelName != "Hill Lodge" {
		t.Fatalf("unexpected day 2 after round trip: %+v", back.DayEvents[2])
	}
}

func TestPresenter_RoundsMoneyForDisplay(t *testing.T) {
	events := twoDayTrip()
	events[3] = []domain.DayEvent{stay(3, hotel(1, "Beach Hut", "3000"))}
	s := pricing.NewSession(gst18())
	s.Reconcile(events, 4)
	s.ApplyMarkup(1, 0, 100, pricing.ScopeOption)

	b := pricing.NewPresenter(s, events).RenderBreakdown(1)
	assertDec(t, "markup", b.Totals.TotalMarkup, "100")
	assertDec(t, "gross", b.Totals.TotalGross, "12100")
	assertDec(t, "final", b.Totals.FinalTotal, "14278")
	assertDec(t, "cgst", b.Components[0].Amount, "1089")

	ps := pricing.BuildProposals(s, domain.Package{ItineraryName: "Goa Escape"})
	assertDec(t, "proposal price", ps[0].Price, "14278")
	assertDec(t, "proposal night markup", ps[0].Hotels[0].Pricing.Markup, "33.33")

	// the stored line keeps the exact share
	l, _ := s.Line(domain.LineKey{Option: 1, Day: 1, Index: 0})
	if l.Markup.Equal(dec("33.33")) {
		t.Fatalf("engine value was rounded: %s", l.Markup)
	}
}
