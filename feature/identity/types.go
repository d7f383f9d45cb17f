package identity

// Patron is a resolved record from the identity system.
type Patron struct {
	// PrimaryID is the stable patron identifier, the cross-system
	// correlation key.
	PrimaryID string `json:"primary_id"`
	// Barcode is the borrower identifier, used as the access-control
	// system's unique id. At most one barcode exists per primary id.
	Barcode string `json:"barcode"`
	// UserGroup is the patron's category label, optional.
	UserGroup string `json:"user_group"`
}

// LookupStatus classifies the outcome of one zone lookup.
type LookupStatus int

const (
	// StatusFound means the zone returned a usable record.
	StatusFound LookupStatus = iota
	// StatusNotFound means the zone explicitly reported the user as
	// unknown; the id is carried forward to the next zone.
	StatusNotFound
	// StatusError covers network, auth, and malformed-response failures.
	// The id is dropped for this run and logged.
	StatusError
)

// lookupResult is the settled outcome of one lookup request.
type lookupResult struct {
	id     string
	status LookupStatus
	patron Patron
	err    error
}
