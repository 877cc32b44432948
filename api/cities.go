package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/service/cities"
	"github.com/gin-gonic/gin"
)

type CityHandler struct {
	service cities.CityUseCase
}

func NewCityHandler(service cities.CityUseCase) *CityHandler {
	return &CityHandler{service: service}
}

func (h *CityHandler) Register(router *gin.RouterGroup) {
	router.GET("/all", h.list)
	router.GET("/:id", h.get)
}

func (h *CityHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CityHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	city, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}
