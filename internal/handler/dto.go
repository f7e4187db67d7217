package handler

import (
	"time"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/service"
)

// ----- response shapes -----

type accountJSON struct {
	ID             uint64    `json:"id"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	BarNumber      string    `json:"bar_number,omitempty"`
	ActiveAdvocate *bool     `json:"is_active_advocate,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAccount(a model.Account) accountJSON {
	out := accountJSON{ID: a.ID, Role: string(a.Role), Name: a.Name, Email: a.Email, Phone: a.Phone, CreatedAt: a.CreatedAt}
	if a.Advocate != nil {
		active := a.Advocate.Active
		out.BarNumber = a.Advocate.BarNumber
		out.ActiveAdvocate = &active
	}
	return out
}

type profileJSON struct {
	Specialization  string `json:"specialization"`
	ExperienceYears uint32 `json:"experience_years"`
	Location        string `json:"location"`
	Bio             string `json:"bio"`
	ConsultationFee string `json:"consultation_fee"`
	Rating          string `json:"rating"`
	TotalCases      uint32 `json:"total_cases"`
}

func toProfile(p model.AdvocateProfile) profileJSON {
	return profileJSON{
		Specialization:  p.Specialization,
		ExperienceYears: p.ExperienceYears,
		Location:        p.Location,
		Bio:             p.Bio,
		ConsultationFee: p.ConsultationFee.StringFixed(2),
		Rating:          p.Rating.StringFixed(2),
		TotalCases:      p.TotalCases,
	}
}

// advocateJSON is the public advocate card shown in listings.
type advocateJSON struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	BarNumber string      `json:"bar_number"`
	Profile   profileJSON `json:"profile"`
}

func toAdvocate(c model.AdvocateCard) advocateJSON {
	out := advocateJSON{ID: c.Account.ID, Name: c.Account.Name, Email: c.Account.Email, Phone: c.Account.Phone, Profile: toProfile(c.Profile)}
	if c.Account.Advocate != nil {
		out.BarNumber = c.Account.Advocate.BarNumber
	}
	return out
}

func toAdvocates(cards []model.AdvocateCard) []advocateJSON {
	out := make([]advocateJSON, 0, len(cards))
	for _, c := range cards {
		out = append(out, toAdvocate(c))
	}
	return out
}

type bookingJSON struct {
	ID          uint64    `json:"id"`
	ClientID    uint64    `json:"client_id"`
	AdvocateID  uint64    `json:"advocate_id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Purpose     string    `json:"purpose"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toBooking(b model.Booking) bookingJSON {
	return bookingJSON{
		ID: b.ID, ClientID: b.ClientID, AdvocateID: b.AdvocateID,
		Date: b.Date.Format("2006-01-02"), Time: b.Time,
		Purpose: b.Purpose, Notes: b.Notes, Status: string(b.Status), MeetingLink: b.MeetingLink,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

func toBookings(list []model.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(list))
	for _, b := range list {
		out = append(out, toBooking(b))
	}
	return out
}

type documentJSON struct {
	ID          uint64    `json:"id"`
	BookingID   uint64    `json:"booking_id"`
	UploadedBy  uint64    `json:"uploaded_by"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileName    string    `json:"file_name"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toDocument(d model.Document) documentJSON {
	return documentJSON{
		ID: d.ID, BookingID: d.BookingID, UploadedBy: d.UploadedBy, Title: d.Title,
		Description: d.Description, FileName: d.FileName, SizeBytes: d.SizeBytes, UploadedAt: d.UploadedAt,
	}
}

func toDocuments(list []model.Document) []documentJSON {
	out := make([]documentJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toDocument(d))
	}
	return out
}

type reviewJSON struct {
	ID         uint64    `json:"id"`
	BookingID  uint64    `json:"booking_id"`
	ClientID   uint64    `json:"client_id"`
	AdvocateID uint64    `json:"advocate_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReview(r model.Review) reviewJSON {
	return reviewJSON{ID: r.ID, BookingID: r.BookingID, ClientID: r.ClientID, AdvocateID: r.AdvocateID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
}

func toReviews(list []model.Review) []reviewJSON {
	out := make([]reviewJSON, 0, len(list))
	for _, r := range list {
		out = append(out, toReview(r))
	}
	return out
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Account accountJSON `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

func toAuth(a model.Account, p service.TokenPair) authResp {
	return authResp{
		Account: toAccount(a),
		Access:  tokenPart{Token: p.AccessToken, Expires: p.AccessExpiresAt},
		Refresh: tokenPart{Token: p.RefreshToken, Expires: p.RefreshExpiresAt},
	}
}
