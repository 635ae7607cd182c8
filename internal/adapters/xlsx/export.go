package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

const summarySheet = "Summary"

var summaryHeader = []any{
	"Option", "Nights", "Total Net", "Total Markup", "Total Gross",
	"CGST", "SGST", "IGST", "TCS", "Discount", "Final Total", "Client Price",
}

var nightHeader = []any{"Night", "Day", "Key", "Hotel", "Room", "Meal Plan", "Net", "Markup", "Gross"}

// WritePricing renders a workbook with a summary sheet and one sheet per option.
func WritePricing(w io.Writer, pkg domain.Package, options []pricing.OptionSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("xlsx: create summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx: drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", pkg.ItineraryName)
	_ = f.SetCellValue(summarySheet, "A2", "Destinations")
	_ = f.SetCellValue(summarySheet, "B2", pkg.Destinations)
	_ = f.SetCellValue(summarySheet, "A3", "Duration")
	_ = f.SetCellValue(summarySheet, "B3", pkg.Duration)
	if err := writeRow(f, summarySheet, 5, summaryHeader); err != nil {
		return err
	}
	_ = f.SetCellStyle(summarySheet, "A5", cell(len(summaryHeader), 5), bold)

	for i, o := range options {
		t := o.Totals
		row := []any{
			o.OptionNumber, len(o.Nights),
			num(t.TotalNet), num(t.TotalMarkup), num(t.TotalGross),
			num(t.CGSTAmount), num(t.SGSTAmount), num(t.IGSTAmount), num(t.TCSAmount), num(t.DiscountAmount),
			num(t.FinalTotal), num(t.ClientPrice),
		}
		if err := writeRow(f, summarySheet, 6+i, row); err != nil {
			return err
		}
		if err := writeOptionSheet(f, o, bold); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "L", 14)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// SheetName is the worksheet holding an option's nights.
func SheetName(option int) string { return fmt.Sprintf("Option %d", option) }

func writeOptionSheet(f *excelize.File, o pricing.OptionSummary, header int) error {
	name := SheetName(o.OptionNumber)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("xlsx: create %s: %w", name, err)
	}
	if err := writeRow(f, name, 1, nightHeader); err != nil {
		return err
	}
	_ = f.SetCellStyle(name, "A1", cell(len(nightHeader), 1), header)
	for i, n := range o.Nights {
		row := []any{
			n.Night, n.Day, n.Key, n.Hotel.HotelName, n.Hotel.RoomName, n.Hotel.MealPlan,
			num(n.Pricing.Net), num(n.Pricing.Markup), num(n.Pricing.Gross),
		}
		if err := writeRow(f, name, 2+i, row); err != nil {
			return err
		}
	}

	r := len(o.Nights) + 3
	g := o.Settings
	for i, field := range domain.GstFields {
		_ = f.SetCellValue(name, cell(1, r+i), strings.ToUpper(string(field))+" %")
		_ = f.SetCellValue(name, cell(2, r+i), num(g.Get(field)))
	}
	_ = f.SetCellValue(name, cell(1, r+len(domain.GstFields)), "Client Price")
	_ = f.SetCellValue(name, cell(2, r+len(domain.GstFields)), num(o.Totals.ClientPrice))
	_ = f.SetColWidth(name, "D", "D", 28)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	start := cell(1, row)
	if err := f.SetSheetRow(sheet, start, &vals); err != nil {
		return fmt.Errorf("xlsx: write %s!%s: %w", sheet, start, err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// num converts money for the spreadsheet, rounded to MoneyPlaces.
func num(d decimal.Decimal) float64 { return domain.Money(d).InexactFloat64() }
