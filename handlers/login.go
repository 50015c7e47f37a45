package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sacagente/middleware"
)

// Login обрабатывает авторизацию асессора и выдаёт JWT на смену.
// Проверка учётных данных делегирована бэкенду через OAuth-шлюз
// и здесь не дублируется: токен выдаётся по известному asesorId.
func Login(c *gin.Context) {
	var credentials struct {
		AsesorID string `json:"asesorId" binding:"required"`
		Nombre   string `json:"nombre" binding:"required"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		logrus.WithError(err).Warn("ошибка парсинга данных для авторизации")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(credentials.AsesorID, credentials.Nombre)
	if err != nil {
		logrus.WithError(err).Error("токен не сгенерировался")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo generar el token"})
		return
	}

	logrus.WithField("asesor", credentials.AsesorID).Info("асессор авторизован")
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"asesorId": credentials.AsesorID,
		"nombre":   credentials.Nombre,
	})
}
