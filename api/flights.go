package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightRequest struct {
	FromCity      int64            `json:"from_city" binding:"required,gt=0"`
	ToCity        int64            `json:"to_city" binding:"required,gt=0"`
	DepartureTime time.Time        `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time        `json:"arrival_time" binding:"required"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	SeatsTotal    *int             `json:"seats_total" binding:"required,gte=0"`
}

func (r flightRequest) details() domain.FlightDetails {
	return domain.FlightDetails{
		FromCity:      r.FromCity,
		ToCity:        r.ToCity,
		DepartureTime: r.DepartureTime,
		ArrivalTime:   r.ArrivalTime,
		Price:         *r.Price,
		SeatsTotal:    *r.SeatsTotal,
	}
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts the flight routes; writes go through admin.
func (h *FlightHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("", h.list)
	router.GET("/filter", h.filter)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
	router.POST("", admin, h.create)
	router.PUT("/:id", admin, h.update)
	router.DELETE("/:id", admin, h.delete)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) filter(c *gin.Context) {
	filter, err := parseFlightFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.service.Filter(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func parseFlightFilter(c *gin.Context) (domain.FlightFilter, error) {
	var (
		filter domain.FlightFilter
		v      = &domain.ValidationError{}
	)
	if raw := c.Query("origin"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.Add("origin", "must be a city id")
		} else {
			filter.Origin = &id
		}
	}
	if raw := c.Query("destination"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.Add("destination", "must be a city id")
		} else {
			filter.Destination = &id
		}
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			v.Add("date", "must match the format YYYY-MM-DD")
		} else {
			filter.Date = &day
		}
	}
	if !v.Empty() {
		return domain.FlightFilter{}, v
	}
	return filter, nil
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	seats, err := h.service.Seats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	flight, err := h.service.Create(c.Request.Context(), req.details())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	flight, err := h.service.Update(c.Request.Context(), id, req.details())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
