package httpgin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/repository/memory"
	"github.com/kirinyoku/spacebook/internal/service"
)

const testSecret = "test-secret"

type testAPI struct {
	router *gin.Engine
	owner  uuid.UUID
	guest  uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Monday 2030-01-07, 08:00
	clk := clock.NewManual(time.Date(2030, time.January, 7, 8, 0, 0, 0, time.UTC))
	m := metrics.New()
	svcs := service.NewServices(memory.NewStore(), nil, nil, m, clk, nil, service.Config{})

	return &testAPI{
		router: NewRouter(Deps{
			Services:  svcs,
			Metrics:   m,
			JWTSecret: testSecret,
			Location:  time.UTC,
		}),
		owner: uuid.New(),
		guest: uuid.New(),
	}
}

func token(t *testing.T, sub uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testAPI) do(t *testing.T, method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(t, actor))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) createSpace(t *testing.T, capacity int) domain.Space {
	t.Helper()
	w := a.do(t, http.MethodPost, "/spaces", a.owner, CreateSpaceRequest{Name: "Hall", Capacity: capacity})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Space](t, w)
}

func (a *testAPI) book(t *testing.T, spaceID uuid.UUID, start, end string, attendees int) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodPost, "/spaces/"+spaceID.String()+"/bookings", a.guest, CreateBookingRequest{
		StartTime:     start,
		EndTime:       end,
		AttendeeCount: attendees,
	})
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/spaces", uuid.Nil, CreateSpaceRequest{Name: "Hall", Capacity: 3})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[ErrorResponse](t, rec).Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	sp := a.createSpace(t, 10)

	w := a.book(t, sp.ID, "2030-01-07T10:00", "2030-01-07T11:00", 10)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[BookingResponse](t, w)
	assert.Equal(t, domain.StatusPending, first.Status)
	assert.Equal(t, "2030-01-07T10:00", first.StartTime)

	w = a.book(t, sp.ID, "2030-01-07T10:30", "2030-01-07T11:30", 2)
	assert.Equal(t, http.StatusConflict, w.Code)
	errResp := decode[ErrorResponse](t, w)
	assert.Equal(t, "OVERLAP", errResp.Code)
	assert.Equal(t, "This time slot conflicts with an existing booking", errResp.Error)

	w = a.book(t, sp.ID, "2030-01-07T11:00", "2030-01-07T12:00", 2)
	assert.Equal(t, http.StatusCreated, w.Code, "adjacent booking must be admitted")

	w = a.book(t, sp.ID, "2030-01-07T13:00", "2030-01-07T14:00", 11)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodPost, "/bookings/"+first.ID+"/confirm", a.guest, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/bookings/"+first.ID+"/confirm", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.StatusConfirmed, decode[BookingResponse](t, w).Status)

	w = a.do(t, http.MethodPost, "/bookings/"+first.ID+"/reject", a.owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodPost, "/bookings/"+first.ID+"/cancel", a.guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusCancelled, decode[BookingResponse](t, w).Status)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/bookings?status=pending", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]BookingResponse](t, w), 1)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/bookings?status=bogus", a.owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/bookings", a.guest, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodGet, "/me/bookings", a.guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]BookingResponse](t, w), 2)

	w = a.do(t, http.MethodGet, "/bookings/"+first.ID, uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingValidationOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	sp := a.createSpace(t, 5)

	w := a.book(t, sp.ID, "", "2030-01-07T11:00", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELD", decode[ErrorResponse](t, w).Code)

	w = a.book(t, sp.ID, "2030-01-07T11:00", "2030-01-07T10:00", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RANGE", decode[ErrorResponse](t, w).Code)

	w = a.book(t, sp.ID, "next tuesday", "2030-01-07T10:00", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RANGE", decode[ErrorResponse](t, w).Code)

	w = a.book(t, uuid.New(), "2030-01-07T10:00", "2030-01-07T11:00", 1)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, w).Code)
}

func TestAvailabilityAndSlots(t *testing.T) {
	a := newTestAPI(t)
	sp := a.createSpace(t, 5)
	open := true

	w := a.do(t, http.MethodPut, "/spaces/"+sp.ID.String()+"/availability/monday", a.guest, SetAvailabilityRequest{
		IsAvailable: &open,
		TimeRanges:  []RangeInput{{Start: "09:00", End: "12:00"}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPut, "/spaces/"+sp.ID.String()+"/availability/monday", a.owner, SetAvailabilityRequest{
		IsAvailable: &open,
		TimeRanges:  []RangeInput{{Start: "14:00", End: "18:00"}, {Start: "25:00", End: "26:00"}, {Start: "09:00", End: "12:00"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/slots?date=2030-01-07", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slots := decode[SlotsResponse](t, w)
	assert.Equal(t, []SlotResponse{
		{Start: "2030-01-07T14:00", End: "2030-01-07T18:00"},
		{Start: "2030-01-07T09:00", End: "2030-01-07T12:00"},
	}, slots.Slots)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+sp.ID.String()+"/slots?date=2030-01-07", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/slots?date=2030-01-08", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[SlotsResponse](t, w).Slots)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/slots?date=tomorrow", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/spaces/"+sp.ID.String()+"/availability", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.AvailabilityRule](t, w), 7)

	w = a.do(t, http.MethodPut, "/spaces/"+sp.ID.String()+"/availability/someday", a.owner, SetAvailabilityRequest{IsAvailable: &open})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestionsOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	lat, lng := 51.5074, -0.1278

	w := a.do(t, http.MethodPost, "/me/locations", a.guest, SaveLocationRequest{Name: "Home", Latitude: &lat, Longitude: &lng, RadiusKm: 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loc := decode[domain.Location](t, w)

	w = a.do(t, http.MethodPost, "/me/locations/"+loc.ID.String()+"/visits", a.guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[domain.Location](t, w).VisitCount)

	evLat := 51.5080
	w = a.do(t, http.MethodPost, "/events", a.owner, CreateEventRequest{Title: "Pilates", StartsAt: "2030-01-08T18:00", Latitude: &evLat, Longitude: &lng})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/me/suggestions/generate", a.guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[GenerateSuggestionsResponse](t, w).Created)

	w = a.do(t, http.MethodGet, "/me/suggestions", a.guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.SuggestedClass](t, w)
	require.Len(t, list, 1)

	w = a.do(t, http.MethodPost, "/me/suggestions/"+list[0].ID.String()+"/dismiss", a.owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/me/suggestions/"+list[0].ID.String()+"/dismiss", a.guest, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodGet, "/healthz", uuid.Nil, nil)

	w := a.do(t, http.MethodGet, "/metrics", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestParseWallClock(t *testing.T) {
	got, err := parseWallClock("2030-01-07T10:15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 7, 10, 15, 0, 0, time.UTC), got)

	got, err = parseWallClock("2030-01-07T10:15:00+05:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 7, 10, 15, 0, 0, time.UTC), got, "offset is dropped, clock fields kept")

	got, err = parseWallClock("", time.UTC)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseWallClock("07/01/2030", time.UTC)
	assert.Error(t, err)
}

func TestBookingFingerprint(t *testing.T) {
	space := uuid.New()
	req := CreateBookingRequest{StartTime: "2030-01-07T10:00", EndTime: "2030-01-07T11:00", AttendeeCount: 4}

	fp := bookingFingerprint(space, req)
	assert.Len(t, fp, 64)
	assert.NotContains(t, fp, ":")
	assert.Equal(t, fp, bookingFingerprint(space, req))

	other := req
	other.AttendeeCount = 5
	assert.NotEqual(t, fp, bookingFingerprint(space, other))

	other = req
	other.Notes.EventTitle = "standup"
	assert.NotEqual(t, fp, bookingFingerprint(space, other))

	assert.NotEqual(t, fp, bookingFingerprint(uuid.New(), req))
}
