package pricing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"itinerary_pricing/internal/domain"
)

type Scope int

const (
	ScopeOption Scope = iota
	ScopeAll
)

func ParseScope(s string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "option", "single":
		return ScopeOption, true
	case "all":
		return ScopeAll, true
	}
	return ScopeOption, false
}

func (s Scope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "option"
}

// Session is the working pricing state of one itinerary. It is owned by a single caller
// and is not safe for concurrent use.
type Session struct {
	globals   domain.Rates
	lines     map[domain.LineKey]domain.PricingLine
	gst       map[int]domain.GstSettings
	overrides map[int]domain.FlexDecimal

	groups     map[int][]OptionLine
	reconciled bool
	maxOptions int
}

func NewSession(globals domain.Rates) *Session {
	return &Session{
		globals:    globals,
		lines:      map[domain.LineKey]domain.PricingLine{},
		gst:        map[int]domain.GstSettings{},
		overrides:  map[int]domain.FlexDecimal{},
		groups:     map[int][]OptionLine{},
		maxOptions: domain.DefaultMaxHotelOptions,
	}
}

// Reconcile aggregates events and fills in pricing lines and GST settings that do not exist
// yet. Existing lines and settings are never touched, so calling it repeatedly is safe.
// It returns the number of lines seeded.
func (s *Session) Reconcile(events domain.DayEvents, maxHotelOptions int) int {
	s.maxOptions = ceiling(maxHotelOptions)
	s.groups = AggregateOptions(events, s.maxOptions)
	s.reconciled = true

	seeded := 0
	for opt, group := range s.groups {
		for _, ol := range group {
			if _, ok := s.lines[ol.Key]; ok {
				continue
			}
			s.lines[ol.Key] = domain.NewPricingLine(ol.Hotel.Price, decimal.Zero)
			seeded++
		}
		if _, ok := s.gst[opt]; !ok {
			s.gst[opt] = s.globals.Gst()
		}
	}
	return seeded
}

func (s *Session) Reconciled() bool { return s.reconciled }

func (s *Session) MaxHotelOptions() int { return s.maxOptions }

func (s *Session) Globals() domain.Rates { return s.globals }

// SetGlobalRate changes a session default. Options already seeded keep their own settings.
func (s *Session) SetGlobalRate(field domain.GlobalField, value any) {
	s.globals.Set(field, domain.Amount(value))
}

// EditLine writes net or markup and recomputes gross. Unknown keys start from zero;
// blank or non-numeric values are zero.
func (s *Session) EditLine(key domain.LineKey, field domain.LineField, value any) domain.PricingLine {
	line := s.lines[key]
	v := domain.Amount(value)
	switch field {
	case domain.FieldNet:
		line = domain.NewPricingLine(v, line.Markup)
	case domain.FieldMarkup:
		line = domain.NewPricingLine(line.Net, v)
	default:
		line = domain.NewPricingLine(line.Net, line.Markup)
	}
	s.lines[key] = line
	return line
}

func (s *Session) Line(key domain.LineKey) (domain.PricingLine, bool) {
	l, ok := s.lines[key]
	return l, ok
}

// ApplyMarkup sets markup = net*base/100 + extra/n on every line in scope, where n is the
// option's line count (ScopeOption) or the line count across all options (ScopeAll).
// Markup is recomputed from net, so repeating the call with the same inputs changes nothing.
// base and extra become the session's last-used markup defaults.
func (s *Session) ApplyMarkup(option int, base, extra any, scope Scope) int {
	b, e := domain.Amount(base), domain.Amount(extra)
	s.globals.BaseMarkup, s.globals.ExtraMarkup = b, e

	var keys []domain.LineKey
	if scope == ScopeAll {
		for _, opt := range s.OptionNumbers() {
			keys = append(keys, s.memberKeys(opt)...)
		}
	} else {
		keys = s.memberKeys(option)
	}
	if len(keys) == 0 {
		return 0
	}
	share := e.Div(decimal.NewFromInt(int64(len(keys))))
	for _, k := range keys {
		line := s.lines[k]
		s.lines[k] = domain.NewPricingLine(line.Net, domain.Percent(line.Net, b).Add(share))
	}
	return len(keys)
}

// GstSettings returns the option's own settings, or the session globals if it has none yet.
func (s *Session) GstSettings(option int) domain.GstSettings {
	if g, ok := s.gst[option]; ok {
		return g
	}
	return s.globals.Gst()
}

// SetOptionGstSetting writes one tax or discount percentage for an option. An option
// without settings starts from the session globals.
func (s *Session) SetOptionGstSetting(option int, field domain.GstField, value any) domain.GstSettings {
	g := s.GstSettings(option)
	g.Set(field, domain.Amount(value))
	s.gst[option] = g
	return g
}

// SetFinalClientPrice stores an override for the option's client price; nil clears it.
// A value that is not a number is kept but ignored when totals are computed.
func (s *Session) SetFinalClientPrice(option int, value any) {
	if value == nil {
		delete(s.overrides, option)
		return
	}
	d, ok := domain.ParseAmount(value)
	s.overrides[option] = domain.FlexDecimal{Decimal: d, Set: true, Valid: ok}
}

func (s *Session) FinalClientPrice(option int) (domain.FlexDecimal, bool) {
	o, ok := s.overrides[option]
	return o, ok
}

// ComputeOptionTotals derives the option's totals from the current lines, settings and override.
func (s *Session) ComputeOptionTotals(option int) domain.OptionTotals {
	t := domain.OptionTotals{OptionNumber: option}
	for _, k := range s.memberKeys(option) {
		l := s.lines[k]
		t.TotalNet = t.TotalNet.Add(l.Net)
		t.TotalMarkup = t.TotalMarkup.Add(l.Markup)
	}
	t.TotalGross = t.TotalNet.Add(t.TotalMarkup)

	g := s.GstSettings(option)
	t.CGSTAmount = domain.Percent(t.TotalGross, g.CGST)
	t.SGSTAmount = domain.Percent(t.TotalGross, g.SGST)
	t.IGSTAmount = domain.Percent(t.TotalGross, g.IGST)
	t.TCSAmount = domain.Percent(t.TotalGross, g.TCS)
	t.DiscountAmount = domain.Percent(t.TotalGross, g.Discount)
	t.FinalTotal = t.TotalGross.Add(t.TotalTax()).Sub(t.DiscountAmount)

	t.ClientPrice = t.FinalTotal
	if o, ok := s.overrides[option]; ok && o.Set && o.Valid {
		t.ClientPrice = o.Decimal
	}
	return t
}

// OptionNumbers lists the options present, ascending. After Reconcile these are the
// aggregated options; before it, the options that have stored lines.
func (s *Session) OptionNumbers() []int {
	if s.reconciled {
		return optionNumbers(s.groups)
	}
	seen := map[int]struct{}{}
	for k := range s.lines {
		seen[k.Option] = struct{}{}
	}
	return optionNumbers(seen)
}

// memberKeys returns the distinct line keys of an option ordered by day then index.
// Two events on the same day can produce the same key; they share one line.
func (s *Session) memberKeys(option int) []domain.LineKey {
	var keys []domain.LineKey
	if s.reconciled {
		seen := map[domain.LineKey]struct{}{}
		for _, ol := range s.groups[option] {
			if _, dup := seen[ol.Key]; dup {
				continue
			}
			seen[ol.Key] = struct{}{}
			keys = append(keys, ol.Key)
		}
	} else {
		for k := range s.lines {
			if k.Option == option {
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// Night is one priced hotel night of an option.
type Night struct {
	Night        int                `json:"night"`
	Day          int                `json:"day"`
	Key          string             `json:"key"`
	EventSubject string             `json:"event_subject,omitempty"`
	Hotel        domain.HotelOption `json:"hotel"`
	Pricing      domain.PricingLine `json:"pricing"`
}

type OptionSummary struct {
	OptionNumber     int                 `json:"option_number"`
	Nights           []Night             `json:"nights"`
	Settings         domain.GstSettings  `json:"settings"`
	FinalClientPrice domain.FlexDecimal  `json:"final_client_price"`
	Totals           domain.OptionTotals `json:"totals"`
}

// Options summarizes every present option with its nights in day order.
func (s *Session) Options() []OptionSummary {
	nums := s.OptionNumbers()
	out := make([]OptionSummary, 0, len(nums))
	for _, opt := range nums {
		hotels := map[domain.LineKey]OptionLine{}
		for _, ol := range s.groups[opt] {
			if _, ok := hotels[ol.Key]; !ok {
				hotels[ol.Key] = ol
			}
		}
		keys := s.memberKeys(opt)
		nights := make([]Night, 0, len(keys))
		for i, k := range keys {
			ol := hotels[k]
			nights = append(nights, Night{
				Night:        i + 1,
				Day:          k.Day,
				Key:          k.String(),
				EventSubject: ol.EventSubject,
				Hotel:        ol.Hotel,
				Pricing:      s.lines[k],
			})
		}
		override := s.overrides[opt]
		out = append(out, OptionSummary{
			OptionNumber:     opt,
			Nights:           nights,
			Settings:         s.GstSettings(opt),
			FinalClientPrice: override,
			Totals:           s.ComputeOptionTotals(opt),
		})
	}
	return out
}

// Record converts the session to its persisted form. Version is left to the caller.
func (s *Session) Record(packageID int64) domain.ItineraryPricing {
	rec := domain.EmptyPricing(packageID, s.globals)
	for k, l := range s.lines {
		rec.PricingData[k.String()] = l
	}
	for opt, g := range s.gst {
		rec.OptionGstSettings[strconv.Itoa(opt)] = g
	}
	for opt, o := range s.overrides {
		rec.FinalClientPrices[strconv.Itoa(opt)] = o
	}
	return rec
}

// FromRecord rebuilds a session from a persisted record. Keys that do not parse are skipped.
func FromRecord(rec domain.ItineraryPricing) *Session {
	s := NewSession(rec.Rates)
	for raw, l := range rec.PricingData {
		if k, ok := domain.ParseLineKey(raw); ok {
			s.lines[k] = domain.NewPricingLine(l.Net, l.Markup)
		}
	}
	for raw, g := range rec.OptionGstSettings {
		if opt, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			s.gst[opt] = g
		}
	}
	for raw, o := range rec.FinalClientPrices {
		opt, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || !o.Set {
			continue
		}
		s.overrides[opt] = o
	}
	return s
}
