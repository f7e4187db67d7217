package model

import "time"

// Role tags an account as a client or an advocate.  It is fixed at
// registration and never changes afterwards.
type Role string

const (
    RoleClient   Role = "client"
    RoleAdvocate Role = "advocate"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool { return r == RoleClient || r == RoleAdvocate }

// Account represents a row of the `accounts` table.  Exactly one of
// Client or Advocate is non-nil and it always matches Role, so a client
// account can never carry an advocate-only field such as a bar number.
//
// Fields:
//  ID           – primary key identifier.
//  Role         – client or advocate.
//  Name         – display name.
//  Email        – unique email address (client login key).
//  Phone        – optional phone number.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account may log in.
type Account struct {
    ID           uint64
    Role         Role
    Name         string
    Email        string
    Phone        string
    PasswordHash string
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time

    Client   *ClientDetails
    Advocate *AdvocateDetails
}

// ClientDetails is the client variant payload.  Clients currently have no
// role-specific columns.
type ClientDetails struct{}

// AdvocateDetails is the advocate variant payload.
//  BarNumber – unique bar-registration number (advocate login key).
//  Active    – whether the advocate is publicly bookable and searchable.
type AdvocateDetails struct {
    BarNumber string
    Active    bool
}

// NewClient builds an unsaved client account.
func NewClient(name, email, phone string) Account {
    return Account{Role: RoleClient, Name: name, Email: email, Phone: phone, IsActive: true, Client: &ClientDetails{}}
}

// NewAdvocate builds an unsaved advocate account.
func NewAdvocate(name, email, phone, barNumber string, active bool) Account {
    return Account{
        Role: RoleAdvocate, Name: name, Email: email, Phone: phone, IsActive: true,
        Advocate: &AdvocateDetails{BarNumber: barNumber, Active: active},
    }
}

func (a Account) IsClient() bool   { return a.Role == RoleClient && a.Client != nil }
func (a Account) IsAdvocate() bool { return a.Role == RoleAdvocate && a.Advocate != nil }

// IsActiveAdvocate reports whether the account is an advocate that can be booked.
func (a Account) IsActiveAdvocate() bool {
    return a.IsAdvocate() && a.IsActive && a.Advocate.Active
}

// LoginKey returns the role-specific login key: the email for clients and
// the bar-registration number for advocates.
func (a Account) LoginKey() string {
    if a.IsAdvocate() {
        return a.Advocate.BarNumber
    }
    return a.Email
}
