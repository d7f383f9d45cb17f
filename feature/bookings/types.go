package bookings

// Booking represents one reservation fetched from the calendar system.
// Bookings are produced fresh on every fetch and never mutated afterwards.
type Booking struct {
	// ID is the calendar system's globally unique booking id.
	ID string `json:"bookId"`
	// LocationID is the calendar location the booking belongs to.
	LocationID int `json:"lid"`
	// From is the booking start, RFC3339 with timezone offset.
	From string `json:"fromDate"`
	// To is the booking end, RFC3339 with timezone offset.
	To string `json:"toDate"`
	// Status is the calendar system's free-text state label.
	Status string `json:"status"`
	// PrimaryID is the patron's identity-system key, extracted from the
	// configured form-answer field.
	PrimaryID string `json:"-"`
	// FirstName is the patron's first name as entered in the booking form.
	FirstName string `json:"firstName"`
	// LastName is the patron's last name.
	LastName string `json:"lastName"`
	// Email is the patron's contact email.
	Email string `json:"email"`
}
