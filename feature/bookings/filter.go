package bookings

import "strings"

// FilterAndDedup drops bookings whose status matches one of the cancelled
// labels, then removes duplicate booking ids. When multiple records share
// one id (multi-seat bookings for one reservation) only the first occurrence
// in fetch order is retained; later duplicates are dropped silently.
func FilterAndDedup(in []Booking, cancelled []string) []Booking {
	out := make([]Booking, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, b := range in {
		if isCancelled(b.Status, cancelled) {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}

func isCancelled(status string, cancelled []string) bool {
	for _, label := range cancelled {
		if strings.EqualFold(status, label) {
			return true
		}
	}
	return false
}
