package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"itinerary_pricing/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hotel(opt int, name, price string) domain.HotelOption {
	return domain.HotelOption{OptionNumber: opt, HotelName: name, Price: dec(price)}
}

func stay(day int, hotels ...domain.HotelOption) domain.DayEvent {
	return domain.DayEvent{Day: day, EventType: domain.EventAccommodation, Subject: "Stay", HotelOptions: hotels}
}

// twoDayTrip is the two-day, two-option itinerary with a sightseeing event on day 1.
func twoDayTrip() domain.DayEvents {
	return domain.DayEvents{
		1: {
			{Day: 1, EventType: domain.EventActivity, Subject: "City tour"},
			stay(1, hotel(1, "Sea View", "5000"), hotel(2, "Grand Palace", "7000")),
		},
		2: {
			stay(2, hotel(1, "Hill Lodge", "4000"), hotel(2, "Summit Resort", "6000")),
		},
	}
}

func gst18() domain.Rates {
	return domain.Rates{CGST: dec("9"), SGST: dec("9")}
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: got %s want %s", name, got.String(), want)
	}
}
