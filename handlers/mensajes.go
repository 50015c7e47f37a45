package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sacagente/media"
	"sacagente/models"
)

// GetMensajes возвращает историю открытого чата в хронологическом порядке
func (h *Handler) GetMensajes(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mensajes": ctl.Messages.Messages(),
		"hayMas":   ctl.Messages.HasMore(),
	})
}

// LoadOlderMensajes листает историю назад; agregados - якорь прокрутки
func (h *Handler) LoadOlderMensajes(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	added, err := ctl.LoadOlderMessages(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mensajes":  ctl.Messages.Messages(),
		"hayMas":    ctl.Messages.HasMore(),
		"agregados": added,
	})
}

// SendText отправляет текстовое сообщение в открытый чат
func (h *Handler) SendText(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var body struct {
		Mensaje string `json:"mensaje" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := ctl.SendText(c.Request.Context(), body.Mensaje)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensajeEnviado": sent})
}

// SendMedia отправляет вложение в открытый чат. Картинки и аудио
// ужимаются под потолок WhatsApp перед отправкой на бэкенд.
func (h *Handler) SendMedia(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falta el archivo"})
		return
	}
	tipo := c.PostForm("tipoContenido")
	if tipo == "" {
		tipo = models.ContenidoImagen
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch tipo {
	case models.ContenidoImagen:
		data, err = media.PrepareImage(data)
	case models.ContenidoAudio:
		data, err = media.PrepareAudio(data)
	default:
		if len(data) > media.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "el archivo supera el tamaño máximo"})
			return
		}
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	sent, err := ctl.SendMedia(c.Request.Context(), file.Filename, data, tipo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensajeEnviado": sent})
}

// Media проксирует бинарное содержимое вложения с бэкенда
func (h *Handler) Media(c *gin.Context) {
	data, contentType, err := h.api.Media(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
