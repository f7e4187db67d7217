package model

import "time"

const (
    MinRating = 1
    MaxRating = 5
)

// Review is the single review a client leaves for a completed booking.
type Review struct {
    ID         uint64
    BookingID  uint64
    ClientID   uint64
    AdvocateID uint64
    Rating     int
    Comment    string
    CreatedAt  time.Time
}

// ValidRating reports whether r lies in [MinRating, MaxRating].
func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }
