package domain

// Document is a booking record as stored: a JSON object keyed by field name.
// Bookings keep document semantics end to end so the field policy can operate
// on whatever keys a caller sends.
type Document = map[string]any

// Booking statuses. Status is the only enum validated on writes.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// AllowedStatuses lists the valid values for the status field, in the order
// they are reported back to callers.
var AllowedStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded}

// Payment methods and sources are advisory: they document the expected
// vocabulary but are not validated, matching the stored data in the wild.
const (
	PaymentCard   = "card"
	PaymentCash   = "cash"
	PaymentYape   = "yape"
	PaymentPlin   = "plin"
	PaymentStripe = "stripe"

	SourceWeb     = "web"
	SourceMobile  = "mobile"
	SourceKiosk   = "kiosk"
	SourcePartner = "partner"
)

// CreateFields is the whitelist of keys accepted at creation. Anything else
// in a create payload is dropped silently.
var CreateFields = []string{
	"_id", "showtime_id", "movie_id", "cinema_id", "sala_id", "sala_number",
	"seats", "user", "payment_method", "source", "status", "price_total",
	"currency", "created_at",
}

// MutableFields may change after creation.
var MutableFields = map[string]struct{}{
	"seats":          {},
	"user":           {},
	"payment_method": {},
	"source":         {},
	"status":         {},
	"price_total":    {},
	"currency":       {},
}

// ImmutableFields are fixed forever once the record exists. An update payload
// naming any of them is rejected outright.
var ImmutableFields = map[string]struct{}{
	"_id":         {},
	"showtime_id": {},
	"movie_id":    {},
	"cinema_id":   {},
	"sala_id":     {},
	"sala_number": {},
	"created_at":  {},
}

func statusAllowed(s string) bool {
	for _, v := range AllowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}
