package shared_test

import (
	"testing"
	"time"

	"itinerary_pricing/internal/shared"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("MAX_HOTEL_OPTIONS", "6")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("DEFAULT_CGST", "9")
	t.Setenv("DEFAULT_SGST", "9.5")
	t.Setenv("DEFAULT_TCS", "abc")
	t.Setenv("RECONCILE_WORKERS", "not-a-number")

	c := shared.Load()
	if c.HTTPAddr != ":9999" || c.MaxHotelOptions != 6 || c.CacheTTL != time.Minute {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.Workers != 8 {
		t.Fatalf("invalid int should fall back to default, got %d", c.Workers)
	}
	if c.Defaults.CGST.String() != "9" || c.Defaults.SGST.String() != "9.5" || !c.Defaults.TCS.IsZero() {
		t.Fatalf("unexpected defaults %+v", c.Defaults)
	}
}
