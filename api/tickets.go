package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service booking.BookingUseCase
}

type purchaseRequest struct {
	PassengerName    string `json:"passenger_name" binding:"required"`
	PassengerSurname string `json:"passenger_surname" binding:"required"`
	PassengerEmail   string `json:"passenger_email" binding:"required,email"`
	FlightID         int64  `json:"flight_id" binding:"required,gt=0"`
	SeatNumber       int    `json:"seat_number" binding:"required,gt=0"`
}

func NewTicketHandler(service booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
}

func (h *TicketHandler) create(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	ticket, err := h.service.Purchase(c.Request.Context(), booking.PurchaseInput{
		PassengerName:    req.PassengerName,
		PassengerSurname: req.PassengerSurname,
		PassengerEmail:   req.PassengerEmail,
		FlightID:         req.FlightID,
		SeatNumber:       domain.SeatLabel(req.SeatNumber),
		BookedBy:         principalFrom(c).Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// list returns every ticket to admins and the caller's own tickets otherwise.
func (h *TicketHandler) list(c *gin.Context) {
	principal := principalFrom(c)

	var filter domain.TicketFilter
	if !principal.IsAdmin {
		filter.BookedBy = principal.Email
	}
	if raw := c.Query("flight_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, domain.NewValidationError("flight_id", "must be a flight id"))
			return
		}
		filter.FlightID = id
	}

	tickets, err := h.service.ListTickets(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) get(c *gin.Context) {
	ticket, ok := h.ownedTicket(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) cancel(c *gin.Context) {
	ticket, ok := h.ownedTicket(c)
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), ticket.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

// ownedTicket loads the ticket in the path and checks that the caller may
// see it. It writes the error response itself.
func (h *TicketHandler) ownedTicket(c *gin.Context) (*domain.Ticket, bool) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	ticket, err := h.service.GetTicket(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}

	principal := principalFrom(c)
	if !principal.IsAdmin && ticket.BookedBy != principal.Email {
		writeError(c, &domain.ForbiddenError{Reason: "ticket belongs to another user"})
		return nil, false
	}
	return ticket, true
}
