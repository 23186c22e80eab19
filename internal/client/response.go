package client

import (
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

// PurchaseRequest is the body of POST /purchase/api/v1/tickets
type PurchaseRequest struct {
	EventID string `json:"eventId"`
	VenueID string `json:"venueId"`
	seating.Seat
}

// TicketResponse represents the body returned by a successful purchase
type TicketResponse struct {
	TicketID string `json:"ticketId"`
	EventID  string `json:"eventId,omitempty"`
	VenueID  string `json:"venueId,omitempty"`
	ZoneID   int    `json:"zoneId,omitempty"`
	Row      string `json:"row,omitempty"`
	Column   string `json:"column,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Result describes one HTTP exchange. Non-2xx responses are results, not errors.
type Result struct {
	Method     string
	URL        string
	StatusCode int
	Latency    time.Duration
	Timestamp  time.Time
	BytesOut   int
	BytesIn    int
	Body       []byte
	RequestID  string
}

// PurchaseResult is a purchase exchange plus the parsed ticket, if any
type PurchaseResult struct {
	Result
	Ticket *TicketResponse
}
