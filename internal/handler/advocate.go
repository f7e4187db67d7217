package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// AdvocateHandler serves the public advocate listings and the advocate's
// own profile.
type AdvocateHandler struct {
	IDs      Identity
	Profiles Profiles
	Log      *zap.Logger
}

func NewAdvocateHandler(ids Identity, profiles Profiles, log *zap.Logger) *AdvocateHandler {
	return &AdvocateHandler{IDs: ids, Profiles: profiles, Log: log}
}

type profileReq struct {
	Specialization  string          `json:"specialization"`
	ExperienceYears int             `json:"experience_years"`
	Location        string          `json:"location"`
	Bio             string          `json:"bio"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

// Search: GET /v1/advocates?q=&page=&page_size=
func (h *AdvocateHandler) Search(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Profiles.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     toAdvocates(res.Items),
		"total":     res.Total,
		"page":      res.Page,
		"page_size": res.PageSize,
	})
}

// Featured: GET /v1/advocates/featured
func (h *AdvocateHandler) Featured(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	cards, err := h.Profiles.Featured(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toAdvocates(cards)})
}

// Detail: GET /v1/advocates/:id
func (h *AdvocateHandler) Detail(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid advocate id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	d, err := h.Profiles.Detail(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"advocate": toAdvocate(d.Card), "reviews": toReviews(d.Reviews)})
}

// UpdateProfile: PUT /v1/advocate/profile
func (h *AdvocateHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := h.Profiles.UpdateProfile(ctx, me, model.ProfileUpdate{
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		Location:        req.Location,
		Bio:             req.Bio,
		ConsultationFee: req.ConsultationFee,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toProfile(p))
}
