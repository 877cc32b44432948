package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Filter(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Seats(ctx context.Context, id int64) ([]domain.Seat, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockFlightUseCase) Create(ctx context.Context, details domain.FlightDetails) (*domain.Flight, error) {
	args := m.Called(ctx, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Update(ctx context.Context, id int64, details domain.FlightDetails) (*domain.Flight, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Purchase(ctx context.Context, input booking.PurchaseInput) (*domain.Ticket, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockBookingUseCase) ResizeFlight(ctx context.Context, id int64, details domain.FlightDetails) (*domain.Flight, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockBookingUseCase) ReconcileAll(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockBookingUseCase) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockBookingUseCase) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUseCase) Parse(token string) (domain.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Principal), args.Error(1)
}

type MockCityUseCase struct {
	mock.Mock
}

func (m *MockCityUseCase) List(ctx context.Context) ([]domain.City, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.City), args.Error(1)
}

func (m *MockCityUseCase) Get(ctx context.Context, id int64) (*domain.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.City), args.Error(1)
}

// stubTokens knows two fixed bearer tokens.
type stubTokens struct{}

var (
	adminPrincipal = domain.Principal{Email: "root@example.com", IsAdmin: true}
	userPrincipal  = domain.Principal{Email: "ada@example.com"}
)

func (stubTokens) Parse(token string) (domain.Principal, error) {
	switch token {
	case "admin-token":
		return adminPrincipal, nil
	case "user-token":
		return userPrincipal, nil
	}
	return domain.Principal{}, &domain.AuthError{Reason: "invalid or expired token"}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorResponse {
	var resp errorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}
