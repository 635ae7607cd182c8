package xlsx_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"itinerary_pricing/internal/adapters/xlsx"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

func TestWritePricing(t *testing.T) {
	events := domain.DayEvents{
		1: {{EventType: domain.EventAccommodation, HotelOptions: []domain.HotelOption{
			{OptionNumber: 1, HotelName: "Sea View", Price: decimal.NewFromInt(5000)},
			{OptionNumber: 2, HotelName: "Grand Palace", Price: decimal.NewFromInt(7000)},
		}}},
	}
	s := pricing.NewSession(domain.Rates{CGST: decimal.NewFromInt(9)})
	s.Reconcile(events, 4)
	s.SetFinalClientPrice(2, 8000)

	var buf bytes.Buffer
	pkg := domain.Package{ID: 1, ItineraryName: "Goa Getaway", Destinations: "Goa", Duration: 1}
	if err := xlsx.WritePricing(&buf, pkg, s.Options()); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Summary", xlsx.SheetName(1), xlsx.SheetName(2)}
	if len(sheets) != len(want) {
		t.Fatalf("sheets: %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets: %v", sheets)
		}
	}

	if v, _ := f.GetCellValue("Summary", "A1"); v != "Goa Getaway" {
		t.Fatalf("title: %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "K6"); v != "5450" {
		t.Fatalf("option 1 final total: %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "L7"); v != "8000" {
		t.Fatalf("option 2 client price: %q", v)
	}
	if v, _ := f.GetCellValue(xlsx.SheetName(2), "D2"); v != "Grand Palace" {
		t.Fatalf("option 2 hotel: %q", v)
	}
}

func TestWritePricing_RoundsMoney(t *testing.T) {
	events := domain.DayEvents{}
	for d := 1; d <= 3; d++ {
		events[d] = []domain.DayEvent{{EventType: domain.EventAccommodation, HotelOptions: []domain.HotelOption{
			{OptionNumber: 1, HotelName: "Sea View", Price: decimal.NewFromInt(1000)},
		}}}
	}
	s := pricing.NewSession(domain.Rates{})
	s.Reconcile(events, 4)
	s.ApplyMarkup(1, 0, 100, pricing.ScopeOption)

	var buf bytes.Buffer
	if err := xlsx.WritePricing(&buf, domain.Package{ID: 1, ItineraryName: "Goa Getaway"}, s.Options()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Summary", "D6"); v != "100" {
		t.Fatalf("total markup: %q", v)
	}
	if v, _ := f.GetCellValue(xlsx.SheetName(1), "H2"); v != "33.33" {
		t.Fatalf("night markup: %q", v)
	}
}
