package access

// Visitor carries everything needed to register one patron in the
// access-control system.
type Visitor struct {
	// PrimaryID is the identity-system key; the access-control system has
	// no field for it, so it is stored as the phone surrogate.
	PrimaryID string
	// Barcode becomes the visitor's unique id. Exactly one visitor exists
	// per barcode; re-registration resolves to the existing visitor.
	Barcode string
	// UserGroup selects the visitor category via the configured mapping.
	UserGroup string
	FirstName string
	LastName  string
	Email     string
}

// Prereg describes one scheduled visit to create.
type Prereg struct {
	// VisitorID is the access-control system's visitor id.
	VisitorID string
	// Start and End are RFC3339 timestamps with offset, converted to
	// epoch-second strings on the wire.
	Start string
	End   string
	// LocationID is the calendar location, mapped to a destination name.
	LocationID int
}

// Destination is one destination record in the access-control system.
type Destination struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
