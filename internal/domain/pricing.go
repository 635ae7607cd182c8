package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxHotelOptions is the option ceiling used when the builder does not supply one.
const DefaultMaxHotelOptions = 4

// LineKey identifies a pricing line: the hotel option at Index within an accommodation
// event's option list on Day, priced under package option Option.
type LineKey struct {
	Option int
	Day    int
	Index  int
}

// String is the "option-day-index" form used in persisted pricing_data maps.
func (k LineKey) String() string {
	return fmt.Sprintf("%d-%d-%d", k.Option, k.Day, k.Index)
}

func ParseLineKey(s string) (LineKey, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return LineKey{}, false
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return LineKey{}, false
		}
		n[i] = v
	}
	return LineKey{Option: n[0], Day: n[1], Index: n[2]}, true
}

// PricingLine is the operator's working price for one hotel night. Gross is always Net+Markup.
type PricingLine struct {
	Net    decimal.Decimal `json:"net"`
	Markup decimal.Decimal `json:"markup"`
	Gross  decimal.Decimal `json:"gross"`
}

func NewPricingLine(net, markup decimal.Decimal) PricingLine {
	return PricingLine{Net: net, Markup: markup, Gross: net.Add(markup)}
}

func (l PricingLine) Rounded() PricingLine {
	return PricingLine{Net: Money(l.Net), Markup: Money(l.Markup), Gross: Money(l.Gross)}
}

// UnmarshalJSON coerces net and markup and recomputes gross; a stored gross is never trusted.
func (l *PricingLine) UnmarshalJSON(b []byte) error {
	m, err := decodeLoose(b)
	if err != nil {
		return err
	}
	*l = NewPricingLine(Amount(m["net"]), Amount(m["markup"]))
	return nil
}

type LineField string

const (
	FieldNet    LineField = "net"
	FieldMarkup LineField = "markup"
)

func ParseLineField(s string) (LineField, bool) {
	switch f := LineField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldNet, FieldMarkup:
		return f, true
	}
	return "", false
}

type GstField string

const (
	FieldCGST     GstField = "cgst"
	FieldSGST     GstField = "sgst"
	FieldIGST     GstField = "igst"
	FieldTCS      GstField = "tcs"
	FieldDiscount GstField = "discount"
)

// GstFields lists the tax components in display order.
var GstFields = []GstField{FieldCGST, FieldSGST, FieldIGST, FieldTCS, FieldDiscount}

func ParseGstField(s string) (GstField, bool) {
	f := GstField(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range GstFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// GstSettings holds one option's tax and discount percentages.
type GstSettings struct {
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	IGST     decimal.Decimal `json:"igst"`
	TCS      decimal.Decimal `json:"tcs"`
	Discount decimal.Decimal `json:"discount"`
}

func (g GstSettings) Get(f GstField) decimal.Decimal {
	switch f {
	case FieldCGST:
		return g.CGST
	case FieldSGST:
		return g.SGST
	case FieldIGST:
		return g.IGST
	case FieldTCS:
		return g.TCS
	case FieldDiscount:
		return g.Discount
	}
	return decimal.Zero
}

func (g *GstSettings) Set(f GstField, v decimal.Decimal) {
	switch f {
	case FieldCGST:
		g.CGST = v
	case FieldSGST:
		g.SGST = v
	case FieldIGST:
		g.IGST = v
	case FieldTCS:
		g.TCS = v
	case FieldDiscount:
		g.Discount = v
	}
}

func (g *GstSettings) UnmarshalJSON(b []byte) error {
	m, err := decodeLoose(b)
	if err != nil {
		return err
	}
	*g = GstSettings{}
	for _, f := range GstFields {
		g.Set(f, Amount(m[string(f)]))
	}
	return nil
}

type GlobalField string

const (
	FieldBaseMarkup  GlobalField = "base_markup"
	FieldExtraMarkup GlobalField = "extra_markup"
)

// ParseGlobalField accepts the two markup fields plus any GstField name.
func ParseGlobalField(s string) (GlobalField, bool) {
	f := GlobalField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldBaseMarkup, FieldExtraMarkup:
		return f, true
	}
	if _, ok := ParseGstField(string(f)); ok {
		return f, true
	}
	return "", false
}

// Rates are the session-wide defaults: last used markup inputs plus the GST profile that
// seeds options seen for the first time.
type Rates struct {
	BaseMarkup  decimal.Decimal `json:"base_markup"`
	ExtraMarkup decimal.Decimal `json:"extra_markup"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	IGST        decimal.Decimal `json:"igst"`
	TCS         decimal.Decimal `json:"tcs"`
	Discount    decimal.Decimal `json:"discount"`
}

func (r Rates) Gst() GstSettings {
	return GstSettings{CGST: r.CGST, SGST: r.SGST, IGST: r.IGST, TCS: r.TCS, Discount: r.Discount}
}

func (r *Rates) Set(f GlobalField, v decimal.Decimal) {
	switch f {
	case FieldBaseMarkup:
		r.BaseMarkup = v
	case FieldExtraMarkup:
		r.ExtraMarkup = v
	default:
		g := r.Gst()
		g.Set(GstField(f), v)
		r.CGST, r.SGST, r.IGST, r.TCS, r.Discount = g.CGST, g.SGST, g.IGST, g.TCS, g.Discount
	}
}

// OptionTotals is derived on every read; nothing here is stored.
type OptionTotals struct {
	OptionNumber   int             `json:"option_number"`
	TotalNet       decimal.Decimal `json:"total_net"`
	TotalMarkup    decimal.Decimal `json:"total_markup"`
	TotalGross     decimal.Decimal `json:"total_gross"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	TCSAmount      decimal.Decimal `json:"tcs_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	ClientPrice    decimal.Decimal `json:"client_price"`
}

// Amount returns the computed amount for one tax/discount component.
func (t OptionTotals) Amount(f GstField) decimal.Decimal {
	switch f {
	case FieldCGST:
		return t.CGSTAmount
	case FieldSGST:
		return t.SGSTAmount
	case FieldIGST:
		return t.IGSTAmount
	case FieldTCS:
		return t.TCSAmount
	case FieldDiscount:
		return t.DiscountAmount
	}
	return decimal.Zero
}

// TotalTax is cgst+sgst+igst+tcs; discount is not a tax.
func (t OptionTotals) TotalTax() decimal.Decimal {
	return t.CGSTAmount.Add(t.SGSTAmount).Add(t.IGSTAmount).Add(t.TCSAmount)
}

// MoneyPlaces is the precision money is shown with. Stored and computed values stay exact.
const MoneyPlaces = 2

func Money(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// Rounded returns the totals as presented to a client.
func (t OptionTotals) Rounded() OptionTotals {
	t.TotalNet = Money(t.TotalNet)
	t.TotalMarkup = Money(t.TotalMarkup)
	t.TotalGross = Money(t.TotalGross)
	t.CGSTAmount = Money(t.CGSTAmount)
	t.SGSTAmount = Money(t.SGSTAmount)
	t.IGSTAmount = Money(t.IGSTAmount)
	t.TCSAmount = Money(t.TCSAmount)
	t.DiscountAmount = Money(t.DiscountAmount)
	t.FinalTotal = Money(t.FinalTotal)
	t.ClientPrice = Money(t.ClientPrice)
	return t
}

// ItineraryPricing is the persisted pricing aggregate of one package (itinerary_pricings row).
type ItineraryPricing struct {
	PackageID         int64                  `json:"package_id"`
	PricingData       map[string]PricingLine `json:"pricing_data"`
	FinalClientPrices map[string]FlexDecimal `json:"final_client_prices"`
	OptionGstSettings map[string]GstSettings `json:"option_gst_settings"`
	Rates
	Version   int64      `json:"version"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// EmptyPricing is what a package without saved pricing reads as.
func EmptyPricing(packageID int64, defaults Rates) ItineraryPricing {
	return ItineraryPricing{
		PackageID:         packageID,
		PricingData:       map[string]PricingLine{},
		FinalClientPrices: map[string]FlexDecimal{},
		OptionGstSettings: map[string]GstSettings{},
		Rates:             defaults,
	}
}

// PricingSavedEvent is published after every successful save.
type PricingSavedEvent struct {
	PackageID int64            `json:"package_id"`
	Version   int64            `json:"version"`
	Source    string           `json:"source"` // api|reconciler
	Options   []OptionSnapshot `json:"options"`
	SavedAt   string           `json:"saved_at"`
}

type OptionSnapshot struct {
	OptionNumber int             `json:"option_number"`
	FinalTotal   decimal.Decimal `json:"final_total"`
	ClientPrice  decimal.Decimal `json:"client_price"`
}
