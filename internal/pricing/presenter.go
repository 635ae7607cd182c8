package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"itinerary_pricing/internal/domain"
)

// Presenter projects one option of a session into the client-facing quotation.
// It only reads from the session.
type Presenter struct {
	session  *Session
	events   domain.DayEvents
	options  []int
	selected int
	explicit bool
}

func NewPresenter(s *Session, events domain.DayEvents) *Presenter {
	return &Presenter{
		session: s,
		events:  events,
		options: optionNumbers(AggregateOptions(events, s.MaxHotelOptions())),
	}
}

// Options returns the option numbers present in the itinerary, ascending.
func (p *Presenter) Options() []int { return p.options }

func (p *Presenter) SelectOption(option int) {
	p.selected = option
	p.explicit = true
}

// Selected returns the explicitly selected option, or the lowest present option when
// nothing was selected. ok is false when there is neither.
func (p *Presenter) Selected() (option int, ok bool) {
	if p.explicit {
		return p.selected, true
	}
	if len(p.options) == 0 {
		return 0, false
	}
	return p.options[0], true
}

// FilteredDayEvents is the itinerary as the client sees it for the selected option.
func (p *Presenter) FilteredDayEvents() domain.DayEvents {
	opt, ok := p.Selected()
	if !ok {
		return domain.DayEvents{}
	}
	return FilterDayEvents(p.events, opt)
}

// FilterDayEvents keeps only the given option's hotels on accommodation events and drops
// accommodation events left without any. Other events pass through. Days that end up
// empty are omitted.
func FilterDayEvents(events domain.DayEvents, option int) domain.DayEvents {
	out := domain.DayEvents{}
	for day, evs := range events {
		var kept []domain.DayEvent
		for _, ev := range evs {
			if ev.EventType != domain.EventAccommodation {
				kept = append(kept, ev)
				continue
			}
			var hotels []domain.HotelOption
			for _, h := range ev.HotelOptions {
				if optionOf(h) == option {
					hotels = append(hotels, h)
				}
			}
			if len(hotels) == 0 {
				continue
			}
			ev.HotelOptions = hotels
			kept = append(kept, ev)
		}
		if len(kept) > 0 {
			out[day] = kept
		}
	}
	return out
}

// Component is one tax or discount row of a breakdown.
type Component struct {
	Name      string          `json:"name"`
	Field     domain.GstField `json:"field"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Deduction bool            `json:"deduction,omitempty"`
}

type Breakdown struct {
	OptionNumber int                 `json:"option_number"`
	Totals       domain.OptionTotals `json:"totals"`
	Settings     domain.GstSettings  `json:"settings"`
	Components   []Component         `json:"components"`
	Overridden   bool                `json:"overridden"`
}

// Visible drops zero-amount components. Totals are unaffected.
func (b Breakdown) Visible() []Component {
	out := make([]Component, 0, len(b.Components))
	for _, c := range b.Components {
		if !c.Amount.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// RenderBreakdown uses the session's own totals; there is no second copy of the arithmetic.
// Amounts are rounded to MoneyPlaces for display.
func (p *Presenter) RenderBreakdown(option int) Breakdown {
	t := p.session.ComputeOptionTotals(option).Rounded()
	g := p.session.GstSettings(option)
	comps := make([]Component, 0, len(domain.GstFields))
	for _, f := range domain.GstFields {
		comps = append(comps, Component{
			Name:      strings.ToUpper(string(f)),
			Field:     f,
			Rate:      g.Get(f),
			Amount:    t.Amount(f),
			Deduction: f == domain.FieldDiscount,
		})
	}
	comps[len(comps)-1].Name = "Discount"
	o, set := p.session.FinalClientPrice(option)
	return Breakdown{
		OptionNumber: option,
		Totals:       t,
		Settings:     g,
		Components:   comps,
		Overridden:   set && o.Valid,
	}
}

// Quotation is what the client-sharing collaborator renders for one option.
type Quotation struct {
	Package      domain.Package   `json:"package"`
	OptionNumber int              `json:"option_number"`
	Options      []int            `json:"options"`
	DayEvents    domain.DayEvents `json:"day_events"`
	Breakdown    Breakdown        `json:"breakdown"`
}

// Quotation bundles the selected option's filtered itinerary and breakdown.
// ok is false when no option is selected and none is present.
func (p *Presenter) Quotation(pkg domain.Package) (Quotation, bool) {
	opt, ok := p.Selected()
	if !ok {
		return Quotation{}, false
	}
	return Quotation{
		Package:      pkg,
		OptionNumber: opt,
		Options:      p.options,
		DayEvents:    FilterDayEvents(p.events, opt),
		Breakdown:    p.RenderBreakdown(opt),
	}, true
}
