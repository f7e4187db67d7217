package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/service"
)

// BookingHandler serves dashboards, the booking lifecycle and reviews.
type BookingHandler struct {
	IDs      Identity
	Bookings Bookings
	Reviews  Reviews
	Log      *zap.Logger
}

func NewBookingHandler(ids Identity, bookings Bookings, reviews Reviews, log *zap.Logger) *BookingHandler {
	return &BookingHandler{IDs: ids, Bookings: bookings, Reviews: reviews, Log: log}
}

type createBookingReq struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Purpose string `json:"purpose"`
	Notes   string `json:"notes"`
}

type statusReq struct {
	Status      string `json:"status"`
	MeetingLink string `json:"meeting_link"`
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ClientDashboard: GET /v1/client/dashboard
func (h *BookingHandler) ClientDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	list, err := h.Bookings.ListForClient(ctx, me)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"account": toAccount(me), "bookings": toBookings(list)})
}

// AdvocateDashboard: GET /v1/advocate/dashboard
func (h *BookingHandler) AdvocateDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, err := h.Bookings.ListForAdvocate(ctx, me)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := echo.Map{"account": toAccount(me), "bookings": toBookings(d.Bookings)}
	if d.Profile != nil {
		out["profile"] = toProfile(*d.Profile)
	}
	return c.JSON(http.StatusOK, out)
}

// Create: POST /v1/advocates/:id/bookings
func (h *BookingHandler) Create(c echo.Context) error {
	advID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid advocate id")
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Create(ctx, me, advID, service.BookingRequest{Date: req.Date, Time: req.Time, Purpose: req.Purpose, Notes: req.Notes})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toBooking(b))
}

// Detail: GET /v1/bookings/:id
func (h *BookingHandler) Detail(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, err := h.Bookings.Detail(ctx, me, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := echo.Map{"booking": toBooking(d.Booking), "documents": toDocuments(d.Documents)}
	if d.Review != nil {
		out["review"] = toReview(*d.Review)
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateStatus: PATCH /v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Transition(ctx, me, id, req.Status, req.MeetingLink)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBooking(b))
}

// SubmitReview: POST /v1/bookings/:id/review
func (h *BookingHandler) SubmitReview(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	rv, rating, err := h.Reviews.Submit(ctx, me, id, req.Rating, req.Comment)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"review": toReview(rv), "advocate_rating": rating.StringFixed(2)})
}
