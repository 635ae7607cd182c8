package pricing

import (
	"sort"

	"itinerary_pricing/internal/domain"
)

// OptionLine is a hotel option decorated with where it was found in the itinerary.
type OptionLine struct {
	Key          domain.LineKey     `json:"key"`
	EventID      string             `json:"event_id,omitempty"`
	EventSubject string             `json:"event_subject,omitempty"`
	Hotel        domain.HotelOption `json:"hotel"`
}

// AggregateOptions groups every accommodation hotel option by option number.
// Options above maxHotelOptions are dropped; maxHotelOptions <= 0 means the default ceiling.
// Key.Index is the position in the event's full hotel option list, so it is stable
// whether or not neighbours were dropped by the ceiling.
func AggregateOptions(events domain.DayEvents, maxHotelOptions int) map[int][]OptionLine {
	limit := ceiling(maxHotelOptions)
	out := map[int][]OptionLine{}
	for _, day := range SortedDays(events) {
		for _, ev := range events[day] {
			if ev.EventType != domain.EventAccommodation {
				continue
			}
			for idx, h := range ev.HotelOptions {
				opt := optionOf(h)
				if opt > limit {
					continue
				}
				h.OptionNumber = opt
				out[opt] = append(out[opt], OptionLine{
					Key:          domain.LineKey{Option: opt, Day: day, Index: idx},
					EventID:      ev.ID,
					EventSubject: ev.Subject,
					Hotel:        h,
				})
			}
		}
	}
	return out
}

// SortedDays returns the day numbers of events in ascending order.
func SortedDays(events domain.DayEvents) []int {
	days := make([]int, 0, len(events))
	for d := range events {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

func optionNumbers[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func ceiling(n int) int {
	if n <= 0 {
		return domain.DefaultMaxHotelOptions
	}
	return n
}

func optionOf(h domain.HotelOption) int {
	if h.OptionNumber < 1 {
		return 1
	}
	return h.OptionNumber
}
