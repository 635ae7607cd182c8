package domain

import "github.com/shopspring/decimal"

// Proposal is the client-facing offer for one package option, snapshotted on every save.
type Proposal struct {
	OptionNumber  int             `json:"option_number"`
	ItineraryName string          `json:"itinerary_name"`
	Destination   string          `json:"destination,omitempty"`
	Duration      int             `json:"duration"`
	Price         decimal.Decimal `json:"price"`
	Hotels        []ProposalHotel `json:"hotel_details"`
	Pricing       ProposalPricing `json:"pricing"`
}

type ProposalHotel struct {
	Day     int         `json:"day"`
	Night   int         `json:"night"`
	Hotel   HotelOption `json:"hotel"`
	Pricing PricingLine `json:"pricing"`
}

type ProposalPricing struct {
	BaseMarkup       decimal.Decimal `json:"base_markup"`
	ExtraMarkup      decimal.Decimal `json:"extra_markup"`
	Settings         GstSettings     `json:"settings"`
	FinalClientPrice decimal.Decimal `json:"final_client_price"`
	TotalGross       decimal.Decimal `json:"total_gross"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
}
