package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventAccommodation  EventType = "accommodation"
	EventActivity       EventType = "activity"
	EventTransportation EventType = "transportation"
	EventMeal           EventType = "meal"
	EventFlight         EventType = "flight"
	EventVisa           EventType = "visa"
	EventLeisure        EventType = "leisure"
	EventCruise         EventType = "cruise"
)

// DayEvents maps a 1-based day number to that day's events in schedule order.
type DayEvents map[int][]DayEvent

type DayEvent struct {
	ID           string        `json:"id,omitempty"`
	Day          int           `json:"day,omitempty"`
	EventType    EventType     `json:"eventType"`
	Subject      string        `json:"subject"`
	Details      string        `json:"details,omitempty"`
	StartTime    string        `json:"startTime,omitempty"`
	EndTime      string        `json:"endTime,omitempty"`
	Destination  string        `json:"destination,omitempty"`
	Image        string        `json:"image,omitempty"`
	HotelOptions []HotelOption `json:"hotelOptions,omitempty"`
}

// UnmarshalJSON tolerates numeric ids and days sent as strings by the builder UI.
func (e *DayEvent) UnmarshalJSON(b []byte) error {
	type plain DayEvent
	var raw struct {
		plain
		ID  any `json:"id"`
		Day any `json:"day"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = DayEvent(raw.plain)
	e.ID = stringFrom(raw.ID)
	if d, ok := IntFrom(raw.Day); ok {
		e.Day = d
	}
	return nil
}

// HotelOption is one accommodation choice for a day, tagged with the package option it belongs to.
type HotelOption struct {
	OptionNumber int             `json:"optionNumber"`
	HotelName    string          `json:"hotelName,omitempty"`
	Category     int             `json:"category,omitempty"` // star rating 1..5
	RoomName     string          `json:"roomName,omitempty"`
	MealPlan     string          `json:"mealPlan,omitempty"`
	CheckIn      string          `json:"checkIn,omitempty"`
	CheckOut     string          `json:"checkOut,omitempty"`
	Price        decimal.Decimal `json:"price"` // supplier net rate
	Single       int             `json:"single,omitempty"`
	Double       int             `json:"double,omitempty"`
	Triple       int             `json:"triple,omitempty"`
	Quad         int             `json:"quad,omitempty"`
	CWB          int             `json:"cwb,omitempty"` // child with bed
	CNB          int             `json:"cnb,omitempty"` // child no bed
	Image        string          `json:"image,omitempty"`
}

// UnmarshalJSON decodes form-style payloads: numbers may arrive as strings or blanks.
// A missing or unusable optionNumber means option 1; an unusable price means 0.
func (h *HotelOption) UnmarshalJSON(b []byte) error {
	m, err := decodeLoose(b)
	if err != nil {
		return err
	}
	count := func(k string) int {
		n, _ := IntFrom(m[k])
		return n
	}
	*h = HotelOption{
		OptionNumber: OptionNumberFrom(m["optionNumber"]),
		HotelName:    stringFrom(m["hotelName"]),
		Category:     count("category"),
		RoomName:     stringFrom(m["roomName"]),
		MealPlan:     stringFrom(m["mealPlan"]),
		CheckIn:      stringFrom(m["checkIn"]),
		CheckOut:     stringFrom(m["checkOut"]),
		Price:        Amount(m["price"]),
		Single:       count("single"),
		Double:       count("double"),
		Triple:       count("triple"),
		Quad:         count("quad"),
		CWB:          count("cwb"),
		CNB:          count("cnb"),
		Image:        stringFrom(m["image"]),
	}
	return nil
}

// Package is the itinerary metadata shown next to a quotation. It is not used in calculation.
type Package struct {
	ID            int64   `json:"id"`
	ItineraryName string  `json:"itinerary_name"`
	Destinations  string  `json:"destinations,omitempty"`
	Duration      int     `json:"duration"`
	Adult         int     `json:"adult"`
	Child         int     `json:"child"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	Image         *string `json:"image,omitempty"`
}
