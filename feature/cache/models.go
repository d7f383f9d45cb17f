package cache

// UserRow maps a patron's primary id to the barcode and visitor id that were
// registered for them. Rows are replaced on conflict: a visitor id may
// legitimately change over time (e.g. re-registration), so upsert semantics
// are intentional.
type UserRow struct {
	PrimaryID string `gorm:"column:primary_id;primaryKey"`
	Barcode   string `gorm:"column:barcode"`
	VisitorID string `gorm:"column:visitor_id"`
}

// TableName overrides the table name for user rows.
func (UserRow) TableName() string {
	return "users"
}

// AppointmentRow maps a booking id to the pre-registration created for it.
// Inserts are strict: a duplicate booking id signals an invariant violation
// upstream and must surface as an error, never be silently tolerated.
type AppointmentRow struct {
	BookingID string `gorm:"column:booking_id;primaryKey"`
	PreregID  string `gorm:"column:prereg_id"`
}

// TableName overrides the table name for appointment rows.
func (AppointmentRow) TableName() string {
	return "appointments"
}
