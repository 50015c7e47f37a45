package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCasos возвращает текущее содержимое вкладки, свежие сверху
func (h *Handler) GetCasos(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listadoCasos": ctl.Cases.SortedView(),
		"hayMas":       ctl.HasMoreCases(),
		"casoAbierto":  ctl.ActiveCaseID(),
	})
}

// LoadMoreCasos подгружает следующую страницу списка
func (h *Handler) LoadMoreCasos(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	page := ctl.LoadMoreCases(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"listadoCasos": page.Items,
		"hayMas":       ctl.HasMoreCases(),
	})
}

// SearchCasos принимает строку поиска. Сам поиск дебаунсится внутри
// контроллера; ответ подтверждает приём, результат приедет по websocket.
func (h *Handler) SearchCasos(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	ctl.SearchInput(c.Query("numero"))
	c.JSON(http.StatusAccepted, gin.H{"mensaje": "búsqueda aceptada"})
}

// OpenChat открывает чат кейса
func (h *Handler) OpenChat(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.OpenChat(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mensajes": ctl.Messages.Messages(),
		"hayMas":   ctl.Messages.HasMore(),
	})
}

// CloseChat закрывает открытый чат
func (h *Handler) CloseChat(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	ctl.CloseChat(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"mensaje": "chat cerrado"})
}

// ClaimCase закрепляет кейс за асессором
func (h *Handler) ClaimCase(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.ClaimCase(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "caso atendido"})
}

// CloseCase закрывает кейс; требует подтверждения в теле запроса
func (h *Handler) CloseCase(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var body struct {
		Confirmado bool `json:"confirmado"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctl.CloseCase(c.Request.Context(), c.Param("id"), body.Confirmado); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "caso cerrado"})
}

// SetEstado переводит кейс в новое состояние
func (h *Handler) SetEstado(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var body struct {
		Estado     *int `json:"estado" binding:"required"`
		Confirmado bool `json:"confirmado"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctl.SetEstado(c.Request.Context(), c.Param("id"), *body.Estado, body.Confirmado); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "estado actualizado"})
}

// CreateCase создает кейс для нового исходящего разговора
func (h *Handler) CreateCase(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var body struct {
		Numero string `json:"numero" binding:"required"`
		Tipo   string `json:"tipo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caso, err := ctl.CreateCase(c.Request.Context(), body.Numero, body.Tipo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"caso": caso})
}
