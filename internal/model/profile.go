package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// DefaultConsultationFee is applied when an advocate profile is created
// without an explicit fee.
var DefaultConsultationFee = decimal.NewFromInt(500)

// AdvocateProfile is the optional 1:1 extension of an advocate account,
// stored in `advocate_profiles` keyed by the account id.  Rating is derived
// from reviews and is only ever written by the review aggregator.
type AdvocateProfile struct {
    AccountID       uint64
    Specialization  string
    ExperienceYears uint32
    Location        string
    Bio             string
    ConsultationFee decimal.Decimal
    Rating          decimal.Decimal
    TotalCases      uint32
    UpdatedAt       time.Time
}

// ProfileUpdate carries the user-editable profile fields.
type ProfileUpdate struct {
    Specialization  string
    ExperienceYears int
    Location        string
    Bio             string
    ConsultationFee decimal.Decimal
}

// AdvocateCard is an advocate account joined with its profile, used by
// search and detail listings.
type AdvocateCard struct {
    Account Account
    Profile AdvocateProfile
}
