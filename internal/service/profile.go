package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/repository"
)

const (
	FeaturedLimit   = 6
	defaultPageSize = 12
	maxPageSize     = 50
	maxPage         = 10000
)

// ProfileService owns advocate profiles and the public advocate listings.
type ProfileService struct {
	Profiles ProfileStore
	Reviews  ReviewStore
	// RequirePayment leaves activation to the registration payment.
	RequirePayment bool
	Log            *zap.Logger
}

func NewProfileService(profiles ProfileStore, reviews ReviewStore, requirePayment bool, log *zap.Logger) *ProfileService {
	return &ProfileService{Profiles: profiles, Reviews: reviews, RequirePayment: requirePayment, Log: log}
}

// SearchResult is one page of active advocates.
type SearchResult struct {
	Items    []model.AdvocateCard
	Total    int64
	Page     int
	PageSize int
}

// AdvocateDetail is the public view of a single advocate.
type AdvocateDetail struct {
	Card    model.AdvocateCard
	Reviews []model.Review
}

// GetProfile returns an advocate's profile or ErrNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, advocateID uint64) (model.AdvocateProfile, error) {
	p, err := s.Profiles.GetByAccountID(ctx, advocateID)
	if err != nil {
		return model.AdvocateProfile{}, notFound(err)
	}
	return p, nil
}

// UpdateProfile writes the editable fields of the actor's profile,
// creating it when missing.  Unless a registration fee is required, saving
// the profile activates the advocate.  The rating is never taken from input.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor model.Account, u model.ProfileUpdate) (model.AdvocateProfile, error) {
	if !actor.IsAdvocate() {
		return model.AdvocateProfile{}, ErrForbidden
	}
	u.Specialization = strings.TrimSpace(u.Specialization)
	u.Location = strings.TrimSpace(u.Location)
	u.Bio = strings.TrimSpace(u.Bio)
	if u.ExperienceYears < 0 {
		return model.AdvocateProfile{}, invalid("experience years must not be negative")
	}
	if u.ConsultationFee.IsNegative() {
		return model.AdvocateProfile{}, invalid("consultation fee must not be negative")
	}
	if u.ConsultationFee.Equal(decimal.Zero) {
		u.ConsultationFee = model.DefaultConsultationFee
	}
	p, err := s.Profiles.Upsert(ctx, actor.ID, u, !s.RequirePayment)
	if err != nil {
		return model.AdvocateProfile{}, err
	}
	s.Log.Info("advocate profile updated", zap.Uint64("account_id", actor.ID))
	return p, nil
}

// Search lists active advocates matching text.  Page numbers start at 1.
func (s *ProfileService) Search(ctx context.Context, text string, page, pageSize int) (SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return SearchResult{}, invalid("page must not exceed %d", maxPage)
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	items, total, err := s.Profiles.Search(ctx, repository.AdvocateSearchQuery{Text: text, Page: page, PageSize: pageSize})
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Featured returns the top rated active advocates for the home listing.
func (s *ProfileService) Featured(ctx context.Context) ([]model.AdvocateCard, error) {
	return s.Profiles.Featured(ctx, FeaturedLimit)
}

// Detail returns an active advocate with its profile and reviews.
// Inactive advocates are reported as ErrNotFound.
func (s *ProfileService) Detail(ctx context.Context, advocateID uint64) (AdvocateDetail, error) {
	c, err := s.Profiles.GetCard(ctx, advocateID)
	if err != nil {
		return AdvocateDetail{}, notFound(err)
	}
	if !c.Account.IsActiveAdvocate() {
		return AdvocateDetail{}, ErrNotFound
	}
	reviews, err := s.Reviews.ListByAdvocate(ctx, advocateID)
	if err != nil {
		return AdvocateDetail{}, err
	}
	return AdvocateDetail{Card: c, Reviews: reviews}, nil
}
