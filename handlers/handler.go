package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sacagente/backend"
	"sacagente/syncer"
)

// Handler держит контроллеры обеих вкладок и прямой REST-клиент
// для операций, не проходящих через хранилища (прокси медиа).
type Handler struct {
	controllers map[string]*syncer.Controller
	api         *backend.Client
}

// New создает обработчики поверх контроллеров вкладок
func New(controllers map[string]*syncer.Controller, api *backend.Client) *Handler {
	return &Handler{controllers: controllers, api: api}
}

// controller выбирает контроллер по query-параметру vista
// (по умолчанию - вкладка "в работе")
func (h *Handler) controller(c *gin.Context) (*syncer.Controller, bool) {
	vista := c.DefaultQuery("vista", syncer.VistaEnProceso)
	ctl, ok := h.controllers[vista]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vista desconocida: " + vista})
		return nil, false
	}
	return ctl, true
}

// fail переводит доменные ошибки в HTTP-статусы
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, syncer.ErrCasoNoEncontrado):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, syncer.ErrEstadoInvalido),
		errors.Is(err, syncer.ErrCasoCerrado):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, syncer.ErrConfirmacionRequerida),
		errors.Is(err, syncer.ErrSinChatActivo),
		errors.Is(err, syncer.ErrMensajeVacio):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
