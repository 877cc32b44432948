package flights

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Filter(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Seats(ctx context.Context, id int64) ([]domain.Seat, error)
	Create(ctx context.Context, details domain.FlightDetails) (*domain.Flight, error)
	Update(ctx context.Context, id int64, details domain.FlightDetails) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

// FlightCache versions the listing: GetFlights reports the generation it
// read, and SetFlights only fills that generation.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, int64, error)
	SetFlights(ctx context.Context, gen int64, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type CityLookup interface {
	Get(ctx context.Context, id int64) (*domain.City, error)
}

// Resizer applies flight edits together with the seat pool change.
type Resizer interface {
	ResizeFlight(ctx context.Context, flightID int64, details domain.FlightDetails) (*domain.Flight, error)
}

type FlightService struct {
	repo    repository.FlightRepository
	seats   repository.SeatLedger
	tickets repository.TicketRepository
	tx      repository.TxManager
	cities  CityLookup
	resizer Resizer
	cache   FlightCache
}

func NewFlightService(
	repo repository.FlightRepository,
	seats repository.SeatLedger,
	tickets repository.TicketRepository,
	tx repository.TxManager,
	cities CityLookup,
	resizer Resizer,
	cache FlightCache,
) *FlightService {
	return &FlightService{
		repo:    repo,
		seats:   seats,
		tickets: tickets,
		tx:      tx,
		cities:  cities,
		resizer: resizer,
		cache:   cache,
	}
}

// List serves the flight listing from the cache. The generation is read
// before the database, so a fill racing with a booking commit lands in a
// generation nobody reads anymore.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	var (
		gen  int64
		fill bool
	)
	if s.cache != nil {
		cached, current, err := s.cache.GetFlights(ctx)
		switch {
		case err != nil:
			slog.Warn("flights cache unavailable", "error", err)
		case cached != nil:
			return cached, nil
		default:
			gen, fill = current, true
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if fill {
		if err := s.cache.SetFlights(ctx, gen, flights); err != nil {
			slog.Warn("flights cache not filled", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) Filter(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	return s.repo.Filter(ctx, filter)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Seats(ctx context.Context, id int64) ([]domain.Seat, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return flight.Seats, nil
}

// Create stores the flight with seats 1..SeatsTotal, all free.
func (s *FlightService) Create(ctx context.Context, details domain.FlightDetails) (*domain.Flight, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCities(ctx, details); err != nil {
		return nil, err
	}

	var flightID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		created, err := s.repo.Create(ctx, q, details)
		if err != nil {
			return err
		}
		if err := s.seats.AddSeats(ctx, q, created.ID, 1, details.SeatsTotal); err != nil {
			return err
		}
		free, err := s.seats.CountFree(ctx, q, created.ID)
		if err != nil {
			return err
		}
		flightID = created.ID
		return s.repo.SetAvailability(ctx, q, created.ID, free)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("flight created", "flight_id", flightID, "seats_total", details.SeatsTotal)
	s.invalidate(ctx)
	return s.repo.GetByID(ctx, flightID)
}

func (s *FlightService) Update(ctx context.Context, id int64, details domain.FlightDetails) (*domain.Flight, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCities(ctx, details); err != nil {
		return nil, err
	}
	return s.resizer.ResizeFlight(ctx, id, details)
}

// Delete removes a flight and its seats. Flights that still have tickets
// are refused.
func (s *FlightService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		if _, err := s.repo.LockForUpdate(ctx, q, id); err != nil {
			return err
		}
		n, err := s.tickets.CountForFlight(ctx, q, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.FlightHasTicketsError{FlightID: id, Tickets: n}
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}

	slog.Info("flight deleted", "flight_id", id)
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) checkCities(ctx context.Context, details domain.FlightDetails) error {
	if s.cities == nil {
		return nil
	}
	if _, err := s.cities.Get(ctx, details.FromCity); err != nil {
		return err
	}
	if _, err := s.cities.Get(ctx, details.ToCity); err != nil {
		return err
	}
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		slog.Warn("flights cache not invalidated", "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
