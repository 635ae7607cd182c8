package builder_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"itinerary_pricing/internal/adapters/builder"
	"itinerary_pricing/internal/domain"
)

const dayEventsJSON = `{"data":{"1":[{"eventType":"accommodation","subject":"Stay",
	"hotelOptions":[{"optionNumber":"1","price":"5000"},{"optionNumber":2,"price":7000}]}],
	"2":[{"eventType":"activity","subject":"Tour"}]}}`

func TestClient_GetDayEvents_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/packages/12/day-events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key")
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(dayEventsJSON))
		}
	}))
	defer ts.Close()

	cl, err := builder.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ev, err := cl.GetDayEvents(ctx, 12)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ev) != 2 || len(ev[1][0].HotelOptions) != 2 || ev[1][0].HotelOptions[1].Price.String() != "7000" {
		t.Fatalf("unexpected payload: %+v", ev)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected retries, got %d calls", hits)
	}
}

func TestClient_GetDayEvents_FallsBackToLegacyPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/itineraries/5/day-events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"1":[{"eventType":"meal","subject":"Dinner"}]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cl, _ := builder.New(ts.URL+"/", "", 100)
	ev, err := cl.GetDayEvents(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ev[1][0].EventType != domain.EventMeal {
		t.Fatalf("unexpected payload %+v", ev)
	}
}

func TestClient_GetDayEvents_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := builder.New(ts.URL, "k", 100)
	_, err := cl.GetDayEvents(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := builder.New(ts.URL, "bad", 100)
	_, err := cl.GetDayEvents(context.Background(), 1)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("want unauthorized, got %v", err)
	}
}

func TestClient_GetMaxHotelOptions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"max_hotel_options":"6"}}`))
	}))
	defer ts.Close()

	cl, _ := builder.New(ts.URL, "k", 100)
	n, err := cl.GetMaxHotelOptions(context.Background())
	if err != nil || n != 6 {
		t.Fatalf("want 6, got %d (%v)", n, err)
	}
}

func TestClient_GetMaxHotelOptions_DefaultsWhenMissing(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := builder.New(ts.URL, "k", 100)
	n, err := cl.GetMaxHotelOptions(context.Background())
	if err != nil || n != domain.DefaultMaxHotelOptions {
		t.Fatalf("want default, got %d (%v)", n, err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := builder.New("  ", "k", 1); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
