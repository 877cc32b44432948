package booking

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/repository"
)

// memStore is an in-memory stand-in for the flights, seats and tickets
// tables. WithinTx holds the store lock for the whole transaction, which plays
// the role of the flight row lock, and restores a snapshot when fn fails.
type memStore struct {
	mu    sync.Mutex
	state memState
	fail  map[string]error
	// calls lists the ledger operations run inside transactions, in order.
	calls []string
}

type memState struct {
	flights    map[int64]domain.Flight
	seats      map[int64]domain.Seat
	tickets    map[int64]domain.Ticket
	nextFlight int64
	nextSeat   int64
	nextTicket int64
}

func (s memState) clone() memState {
	c := s
	c.flights = maps.Clone(s.flights)
	c.seats = maps.Clone(s.seats)
	c.tickets = maps.Clone(s.tickets)
	return c
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			flights: map[int64]domain.Flight{},
			seats:   map[int64]domain.Seat{},
			tickets: map[int64]domain.Ticket{},
		},
		fail: map[string]error{},
	}
}

// failOn makes the named operation return err inside transactions.
func (m *memStore) failOn(op string, err error) {
	m.fail[op] = err
}

func (m *memStore) injected(op string) error {
	m.calls = append(m.calls, op)
	return m.fail[op]
}

// resetCalls clears the operation log under the store lock.
func (m *memStore) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// addFlight seeds a flight with seats 1..total, all free.
func (m *memStore) addFlight(total int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.nextFlight++
	id := m.state.nextFlight
	m.state.flights[id] = domain.Flight{ID: id, FromCity: 1, ToCity: 2, SeatsTotal: total, SeatsAvailable: total}
	for n := 1; n <= total; n++ {
		m.insertSeat(id, domain.SeatLabel(n))
	}
	return id
}

func (m *memStore) insertSeat(flightID int64, label string) {
	m.state.nextSeat++
	m.state.seats[m.state.nextSeat] = domain.Seat{ID: m.state.nextSeat, FlightID: flightID, SeatNumber: label}
}

func (m *memStore) flight(id int64) domain.Flight {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.flights[id]
}

// seatState returns label -> booked for the flight.
func (m *memStore) seatState(flightID int64) map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]bool{}
	for _, s := range m.state.seats {
		if s.FlightID == flightID {
			out[s.SeatNumber] = s.IsBooked
		}
	}
	return out
}

func (m *memStore) freeCount(flightID int64) int {
	n := 0
	for _, booked := range m.seatState(flightID) {
		if !booked {
			n++
		}
	}
	return n
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.tickets)
}

// corruptAvailability overwrites the stored counter without touching seats.
func (m *memStore) corruptAvailability(flightID int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.state.flights[flightID]
	f.SeatsAvailable = n
	m.state.flights[flightID] = f
}

// TxManager

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(ctx, nil); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// FlightRepository

type memFlights struct{ *memStore }

func (r memFlights) List(ctx context.Context) ([]domain.Flight, error) {
	return r.Filter(ctx, domain.FlightFilter{})
}

func (r memFlights) Filter(_ context.Context, _ domain.FlightFilter) ([]domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Flight, 0, len(r.state.flights))
	for _, f := range r.state.flights {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFlights) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.state.flights[id]
	if !ok {
		return nil, domain.FlightNotFound(id)
	}
	return &f, nil
}

func (r memFlights) ListIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.state.flights))
	for id := range r.state.flights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memFlights) Create(_ context.Context, _ repository.Querier, d domain.FlightDetails) (*domain.Flight, error) {
	r.state.nextFlight++
	f := domain.Flight{ID: r.state.nextFlight, FromCity: d.FromCity, ToCity: d.ToCity, SeatsTotal: d.SeatsTotal}
	r.state.flights[f.ID] = f
	return &f, nil
}

func (r memFlights) LockForUpdate(_ context.Context, _ repository.Querier, id int64) (*domain.Flight, error) {
	if err := r.injected("LockForUpdate"); err != nil {
		return nil, err
	}
	f, ok := r.state.flights[id]
	if !ok {
		return nil, domain.FlightNotFound(id)
	}
	return &f, nil
}

func (r memFlights) UpdateDetails(_ context.Context, _ repository.Querier, id int64, d domain.FlightDetails) error {
	f, ok := r.state.flights[id]
	if !ok {
		return domain.FlightNotFound(id)
	}
	f.FromCity, f.ToCity = d.FromCity, d.ToCity
	f.DepartureTime, f.ArrivalTime = d.DepartureTime, d.ArrivalTime
	f.Price = d.Price
	f.SeatsTotal = d.SeatsTotal
	f.UpdatedAt = time.Now()
	r.state.flights[id] = f
	return nil
}

func (r memFlights) SetAvailability(_ context.Context, _ repository.Querier, id int64, available int) error {
	if err := r.injected("SetAvailability"); err != nil {
		return err
	}
	f, ok := r.state.flights[id]
	if !ok {
		return domain.FlightNotFound(id)
	}
	f.SeatsAvailable = available
	r.state.flights[id] = f
	return nil
}

func (r memFlights) Delete(_ context.Context, _ repository.Querier, id int64) error {
	if _, ok := r.state.flights[id]; !ok {
		return domain.FlightNotFound(id)
	}
	delete(r.state.flights, id)
	return nil
}

// SeatLedger

type memSeats struct{ *memStore }

func (l memSeats) SeatsFor(_ context.Context, _ repository.Querier, flightID int64) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0)
	for _, s := range l.state.seats {
		if s.FlightID == flightID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].SeatNumber)
		b, _ := strconv.Atoi(out[j].SeatNumber)
		return a < b
	})
	return out, nil
}

func (l memSeats) SeatsForFlights(ctx context.Context, q repository.Querier, ids []int64) (map[int64][]domain.Seat, error) {
	out := make(map[int64][]domain.Seat, len(ids))
	for _, id := range ids {
		seats, _ := l.SeatsFor(ctx, q, id)
		out[id] = seats
	}
	return out, nil
}

func (l memSeats) FindSeat(_ context.Context, _ repository.Querier, flightID int64, label string) (*domain.Seat, error) {
	if err := l.injected("FindSeat"); err != nil {
		return nil, err
	}
	for _, s := range l.state.seats {
		if s.FlightID == flightID && s.SeatNumber == label {
			return &s, nil
		}
	}
	return nil, domain.SeatNotFound(flightID, label)
}

func (l memSeats) MarkBooked(_ context.Context, _ repository.Querier, seatID int64) error {
	if err := l.injected("MarkBooked"); err != nil {
		return err
	}
	return l.setBooked(seatID, true)
}

func (l memSeats) MarkFree(_ context.Context, _ repository.Querier, seatID int64) error {
	return l.setBooked(seatID, false)
}

func (l memSeats) setBooked(seatID int64, booked bool) error {
	s, ok := l.state.seats[seatID]
	if !ok {
		return &domain.NotFoundError{Resource: "seat", Key: strconv.FormatInt(seatID, 10)}
	}
	s.IsBooked = booked
	l.state.seats[seatID] = s
	return nil
}

func (l memSeats) AddSeats(_ context.Context, _ repository.Querier, flightID int64, from, to int) error {
	for n := from; n <= to; n++ {
		l.insertSeat(flightID, domain.SeatLabel(n))
	}
	return nil
}

func (l memSeats) RemoveSeat(ctx context.Context, q repository.Querier, flightID int64, label string) error {
	seat, err := l.FindSeat(ctx, q, flightID, label)
	if err != nil {
		return err
	}
	if seat.IsBooked {
		return &domain.SeatBookedError{FlightID: flightID, Label: label}
	}
	delete(l.state.seats, seat.ID)
	return nil
}

func (l memSeats) CountFree(_ context.Context, _ repository.Querier, flightID int64) (int, error) {
	if err := l.injected("CountFree"); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range l.state.seats {
		if s.FlightID == flightID && !s.IsBooked {
			n++
		}
	}
	return n, nil
}

// TicketRepository

type memTickets struct{ *memStore }

func (r memTickets) List(_ context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for _, t := range r.state.tickets {
		if filter.BookedBy != "" && t.BookedBy != filter.BookedBy {
			continue
		}
		if filter.FlightID != 0 && t.FlightID != filter.FlightID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.state.tickets[id]
	if !ok {
		return nil, domain.TicketNotFound(id)
	}
	return &t, nil
}

func (r memTickets) Create(_ context.Context, _ repository.Querier, t *domain.Ticket) error {
	if err := r.injected("CreateTicket"); err != nil {
		return err
	}
	for _, existing := range r.state.tickets {
		if existing.SeatID == t.SeatID {
			return domain.NewStorageError("insert ticket", errors.New("duplicate seat_id"))
		}
	}
	r.state.nextTicket++
	t.ID = r.state.nextTicket
	t.CreatedAt = time.Now()
	r.state.tickets[t.ID] = *t
	return nil
}

func (r memTickets) Find(_ context.Context, _ repository.Querier, id int64) (*domain.Ticket, error) {
	t, ok := r.state.tickets[id]
	if !ok {
		return nil, domain.TicketNotFound(id)
	}
	return &t, nil
}

func (r memTickets) Delete(_ context.Context, _ repository.Querier, id int64) error {
	if _, ok := r.state.tickets[id]; !ok {
		return domain.TicketNotFound(id)
	}
	delete(r.state.tickets, id)
	return nil
}

func (r memTickets) CountForFlight(_ context.Context, _ repository.Querier, flightID int64) (int, error) {
	n := 0
	for _, t := range r.state.tickets {
		if t.FlightID == flightID {
			n++
		}
	}
	return n, nil
}

var (
	_ repository.TxManager        = (*memStore)(nil)
	_ repository.FlightRepository = memFlights{}
	_ repository.SeatLedger       = memSeats{}
	_ repository.TicketRepository = memTickets{}
)
