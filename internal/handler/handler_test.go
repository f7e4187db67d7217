package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/repository"
	"github.com/iliyamo/advocate-booking/internal/service"
)

type stubIdentity struct {
	accounts map[uint64]model.Account
	authErr  error
	regErr   error
}

func (s *stubIdentity) RegisterClient(_ context.Context, in service.ClientRegistration) (model.Account, error) {
	if s.regErr != nil {
		return model.Account{}, s.regErr
	}
	a := model.NewClient(in.Name, in.Email, in.Phone)
	a.ID = 1
	return a, nil
}

func (s *stubIdentity) RegisterAdvocate(_ context.Context, in service.AdvocateRegistration) (model.Account, error) {
	if s.regErr != nil {
		return model.Account{}, s.regErr
	}
	a := model.NewAdvocate(in.Name, in.Email, in.Phone, in.BarNumber, true)
	a.ID = 2
	return a, nil
}

func (s *stubIdentity) Authenticate(_ context.Context, _ model.Role, _, _ string) (model.Account, error) {
	if s.authErr != nil {
		return model.Account{}, s.authErr
	}
	return s.accounts[1], nil
}

func (s *stubIdentity) IssueTokens(_ context.Context, _ model.Account) (service.TokenPair, error) {
	return service.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubIdentity) Refresh(_ context.Context, raw string) (service.TokenPair, error) {
	if raw != "good" {
		return service.TokenPair{}, service.ErrBadCredential
	}
	return service.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (s *stubIdentity) Logout(context.Context, uint64, string) error { return nil }

func (s *stubIdentity) Account(_ context.Context, id uint64) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, service.ErrNotFound
	}
	return a, nil
}

func newIdentity() *stubIdentity {
	client := model.NewClient("Cli", "c@x.com", "")
	client.ID = 1
	adv := model.NewAdvocate("Adv", "a@x.com", "", "BAR1", true)
	adv.ID = 2
	return &stubIdentity{accounts: map[uint64]model.Account{1: client, 2: adv}}
}

func withUser(id uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", id)
			return next(c)
		}
	}
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	body := `{"role":"client","email":"c@x.com","password":"whatever"}`
	var bodies []string
	for _, err := range []error{service.ErrNotFound, service.ErrBadCredential} {
		ids := newIdentity()
		ids.authErr = err
		e := echo.New()
		h := NewAuthHandler(ids, zap.NewNop())
		e.POST("/login", h.Login)

		rec := doJSON(e, http.MethodPost, "/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "invalid credentials")
}

func TestLoginValidatesInput(t *testing.T) {
	e := echo.New()
	h := NewAuthHandler(newIdentity(), zap.NewNop())
	e.POST("/login", h.Login)

	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/login", `{"role":"admin","login":"x","password":"y"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/login", `{"role":"advocate","email":"x@x.com","password":"y"}`).Code)

	rec := doJSON(e, http.MethodPost, "/login", `{"role":"client","login":"c@x.com","password":"y"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"access"`)
}

func TestRegisterConflicts(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.Join(service.ErrDuplicateKey, repository.ErrEmailExists), "email already registered"},
		{errors.Join(service.ErrDuplicateKey, repository.ErrBarNumberExists), "bar number already registered"},
	}
	for _, tc := range cases {
		ids := newIdentity()
		ids.regErr = tc.err
		e := echo.New()
		h := NewAuthHandler(ids, zap.NewNop())
		e.POST("/register/advocate", h.RegisterAdvocate)

		rec := doJSON(e, http.MethodPost, "/register/advocate", `{"name":"A","email":"a@x.com","bar_number":"B1","password":"secret1"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.want)
	}

	e := echo.New()
	h := NewAuthHandler(newIdentity(), zap.NewNop())
	e.POST("/register/client", h.RegisterClient)
	rec := doJSON(e, http.MethodPost, "/register/client", `{"name":"C","email":"c@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"client"`)
	assert.NotContains(t, rec.Body.String(), "bar_number")
}

func TestRefreshAndMe(t *testing.T) {
	ids := newIdentity()
	e := echo.New()
	h := NewAuthHandler(ids, zap.NewNop())
	e.POST("/refresh", h.Refresh)
	e.GET("/me", h.Me, withUser(2))
	e.GET("/ghost", h.Me, withUser(99))

	assert.Equal(t, http.StatusOK, doJSON(e, http.MethodPost, "/refresh", `{"refresh_token":"good"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(e, http.MethodPost, "/refresh", `{"refresh_token":"bad"}`).Code)

	rec := doJSON(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bar_number":"BAR1"`)
	assert.Equal(t, http.StatusUnauthorized, doJSON(e, http.MethodGet, "/ghost", "").Code)
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: bad date", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrBadCredential, http.StatusUnauthorized},
		{errUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrDuplicateKey, http.StatusConflict},
		{service.ErrAlreadyReviewed, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{service.ErrNotCompleted, http.StatusUnprocessableEntity},
		{service.ErrAdvocateInactive, http.StatusUnprocessableEntity},
		{service.ErrPaymentInvalid, http.StatusUnprocessableEntity},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeError(c, zap.NewNop(), tc.err))
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	for _, v := range []interface{}{uint64(5), 5, int64(5), float64(5), "5"} {
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), id)
	}
	c.Set("user_id", nil)
	_, err := getUserID(c)
	assert.Error(t, err)
}

type stubBookings struct {
	transitionErr error
	created       service.BookingRequest
}

func (s *stubBookings) Create(_ context.Context, client model.Account, advID uint64, in service.BookingRequest) (model.Booking, error) {
	if !client.IsClient() {
		return model.Booking{}, service.ErrForbidden
	}
	s.created = in
	return model.Booking{ID: 10, ClientID: client.ID, AdvocateID: advID, Time: in.Time, Status: model.StatusPending}, nil
}

func (s *stubBookings) Transition(_ context.Context, actor model.Account, id uint64, target, link string) (model.Booking, error) {
	if !actor.IsAdvocate() {
		return model.Booking{}, service.ErrForbidden
	}
	if s.transitionErr != nil {
		return model.Booking{}, s.transitionErr
	}
	return model.Booking{ID: id, Status: model.BookingStatus(target), MeetingLink: link}, nil
}

func (s *stubBookings) ListForClient(context.Context, model.Account) ([]model.Booking, error) {
	return []model.Booking{{ID: 2}, {ID: 1}}, nil
}

func (s *stubBookings) ListForAdvocate(context.Context, model.Account) (service.AdvocateDashboard, error) {
	return service.AdvocateDashboard{Profile: &model.AdvocateProfile{Rating: decimal.RequireFromString("4.5")}}, nil
}

func (s *stubBookings) Detail(_ context.Context, _ model.Account, id uint64) (service.BookingDetail, error) {
	return service.BookingDetail{Booking: model.Booking{ID: id}, Review: &model.Review{Rating: 4}}, nil
}

type stubReviews struct{}

func (stubReviews) Submit(_ context.Context, _ model.Account, id uint64, rating int, _ string) (model.Review, decimal.Decimal, error) {
	if id == 99 {
		return model.Review{}, decimal.Zero, service.ErrAlreadyReviewed
	}
	return model.Review{ID: 1, BookingID: id, Rating: rating}, decimal.NewFromInt(int64(rating)), nil
}

func bookingServer(b *stubBookings, uid uint64) *echo.Echo {
	e := echo.New()
	h := NewBookingHandler(newIdentity(), b, stubReviews{}, zap.NewNop())
	g := e.Group("", withUser(uid))
	g.POST("/advocates/:id/bookings", h.Create)
	g.PATCH("/bookings/:id/status", h.UpdateStatus)
	g.GET("/bookings/:id", h.Detail)
	g.POST("/bookings/:id/review", h.SubmitReview)
	g.GET("/client/dashboard", h.ClientDashboard)
	g.GET("/advocate/dashboard", h.AdvocateDashboard)
	return e
}

func TestBookingEndpoints(t *testing.T) {
	b := &stubBookings{}
	client := bookingServer(b, 1)
	adv := bookingServer(b, 2)

	rec := doJSON(client, http.MethodPost, "/advocates/2/bookings", `{"date":"2025-01-10","time":"10:00","purpose":"Lease"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Lease", b.created.Purpose)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	assert.Equal(t, http.StatusBadRequest, doJSON(client, http.MethodPost, "/advocates/x/bookings", `{}`).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(adv, http.MethodPost, "/advocates/2/bookings", `{}`).Code)

	assert.Equal(t, http.StatusForbidden, doJSON(client, http.MethodPatch, "/bookings/10/status", `{"status":"accepted"}`).Code)
	rec = doJSON(adv, http.MethodPatch, "/bookings/10/status", `{"status":"accepted","meeting_link":"https://meet/abc"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://meet/abc")

	b.transitionErr = service.ErrInvalidTransition
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(adv, http.MethodPatch, "/bookings/10/status", `{"status":"completed"}`).Code)

	rec = doJSON(client, http.MethodPost, "/bookings/10/review", `{"rating":4}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"advocate_rating":"4.00"`)
	assert.Equal(t, http.StatusConflict, doJSON(client, http.MethodPost, "/bookings/99/review", `{"rating":4}`).Code)

	rec = doJSON(client, http.MethodGet, "/bookings/10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"review"`)

	rec = doJSON(adv, http.MethodGet, "/advocate/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rating":"4.50"`)
	assert.Equal(t, http.StatusOK, doJSON(client, http.MethodGet, "/client/dashboard", "").Code)
}

type stubDocs struct {
	got  service.Upload
	body string
}

func (s *stubDocs) Upload(_ context.Context, a model.Account, id uint64, up service.Upload) (model.Document, error) {
	b, _ := io.ReadAll(up.Body)
	s.got, s.body = up, string(b)
	return model.Document{ID: 3, BookingID: id, UploadedBy: a.ID, Title: up.Title, FileName: up.FileName, SizeBytes: int64(len(b))}, nil
}

func (s *stubDocs) List(context.Context, model.Account, uint64) ([]model.Document, error) {
	return nil, service.ErrForbidden
}

func (s *stubDocs) Open(_ context.Context, _ model.Account, id uint64) (model.Document, io.ReadCloser, error) {
	return model.Document{ID: id, FileName: "brief.txt"}, io.NopCloser(strings.NewReader("contents")), nil
}

func TestDocumentEndpoints(t *testing.T) {
	docs := &stubDocs{}
	e := echo.New()
	h := NewDocumentHandler(newIdentity(), docs, zap.NewNop())
	g := e.Group("", withUser(1))
	g.POST("/bookings/:id/documents", h.Upload)
	g.GET("/bookings/:id/documents", h.List)
	g.GET("/documents/:id/file", h.File)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Agreement"))
	fw, err := mw.CreateFormFile("file", "agreement.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bookings/7/documents", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Agreement", docs.got.Title)
	assert.Equal(t, "agreement.pdf", docs.got.FileName)
	assert.Equal(t, "%PDF-1.4", docs.body)

	rec = doJSON(e, http.MethodPost, "/bookings/7/documents", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusForbidden, doJSON(e, http.MethodGet, "/bookings/7/documents", "").Code)

	rec = doJSON(e, http.MethodGet, "/documents/3/file", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "contents", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "brief.txt")
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(nil))
	e.GET("/down", Health(failingPinger{}))
	assert.Equal(t, http.StatusOK, doJSON(e, http.MethodGet, "/up", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(e, http.MethodGet, "/down", "").Code)
}
