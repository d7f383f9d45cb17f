package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterAndDedup_FirstOccurrenceWins(t *testing.T) {
	in := []Booking{
		{ID: "A", Status: "Approved", PrimaryID: "P1", FirstName: "First"},
		{ID: "A", Status: "Approved", PrimaryID: "P1", FirstName: "Second"},
		{ID: "B", Status: "Cancelled", PrimaryID: "P2"},
	}

	out := FilterAndDedup(in, defaultCancelledStatuses)

	assert.Len(t, out, 1)
	assert.Equal(t, "A", out[0].ID)
	// The first occurrence is retained, not the later duplicate.
	assert.Equal(t, "First", out[0].FirstName)
}

func TestFilterAndDedup_StatusFilter(t *testing.T) {
	tests := []struct {
		status string
		kept   bool
	}{
		{"Mediated Approved", true},
		{"Confirmed", true},
		{"Approved", true},
		{"Mediated Denied", false},
		{"Cancelled by System", false},
		{"Cancelled by User", false},
		{"Cancelled", false},
		{"cancelled by user", false}, // labels match case-insensitively
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			out := FilterAndDedup([]Booking{{ID: "X", Status: tt.status}}, defaultCancelledStatuses)
			if tt.kept {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestFilterAndDedup_DedupAcrossLocations(t *testing.T) {
	in := []Booking{
		{ID: "A", LocationID: 1, Status: "Approved"},
		{ID: "B", LocationID: 1, Status: "Approved"},
		{ID: "A", LocationID: 2, Status: "Approved"},
		{ID: "C", LocationID: 2, Status: "Approved"},
	}

	out := FilterAndDedup(in, defaultCancelledStatuses)

	assert.Len(t, out, 3)
	assert.Equal(t, 1, out[0].LocationID)
}

func TestFilterAndDedup_Empty(t *testing.T) {
	assert.Empty(t, FilterAndDedup(nil, defaultCancelledStatuses))
}
