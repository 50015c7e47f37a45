package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTipos возвращает справочник типов кейсов
func (h *Handler) GetTipos(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	tipos := ctl.Types.All()
	if len(tipos) == 0 {
		// кэш мог не прогреться на старте - одна повторная попытка
		if err := ctl.Types.Preload(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
		tipos = ctl.Types.All()
	}
	c.JSON(http.StatusOK, gin.H{"listaTipos": tipos})
}

// GetTipo возвращает один тип по id
func (h *Handler) GetTipo(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	tipo, err := ctl.Types.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tipo": tipo})
}
