package model

import "time"

// BookingStatus is the lifecycle state of a consultation request.
type BookingStatus string

const (
    StatusPending   BookingStatus = "pending"
    StatusAccepted  BookingStatus = "accepted"
    StatusRejected  BookingStatus = "rejected"
    StatusCompleted BookingStatus = "completed"
    StatusCancelled BookingStatus = "cancelled"
)

// transitions is the complete edge set of the booking state machine.
// States missing from the map are terminal.
var transitions = map[BookingStatus][]BookingStatus{
    StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
    StatusAccepted: {StatusCompleted, StatusCancelled},
}

// ParseBookingStatus validates a raw status string.
func ParseBookingStatus(s string) (BookingStatus, bool) {
    switch st := BookingStatus(s); st {
    case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
        return st, true
    }
    return "", false
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to BookingStatus) bool {
    for _, next := range transitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// Terminal reports whether no further transition is possible from s.
func (s BookingStatus) Terminal() bool { return len(transitions[s]) == 0 }

// Booking mirrors a row of the `bookings` table.  Date is the consultation
// day (midnight UTC) and Time the wall-clock time as "HH:MM".
type Booking struct {
    ID          uint64
    ClientID    uint64
    AdvocateID  uint64
    Date        time.Time
    Time        string
    Purpose     string
    Notes       string
    Status      BookingStatus
    MeetingLink string
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// Transition moves the booking to target when the edge exists.  The meeting
// link is only replaced when accepting with a non-empty link; otherwise the
// previous value is kept.  Status and UpdatedAt change together.
func (b *Booking) Transition(target BookingStatus, meetingLink string, now time.Time) bool {
    if !CanTransition(b.Status, target) {
        return false
    }
    b.Status = target
    if target == StatusAccepted && meetingLink != "" {
        b.MeetingLink = meetingLink
    }
    b.UpdatedAt = now
    return true
}

// HasParty reports whether accountID is the booking's client or advocate.
func (b Booking) HasParty(accountID uint64) bool {
    return accountID != 0 && (b.ClientID == accountID || b.AdvocateID == accountID)
}
