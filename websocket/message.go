package websocket

import (
	"encoding/json"

	"sacagente/models"
)

// Message представляет кадр, уходящий фронтенду
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage создает кадр с указанным типом и данными
func NewMessage(messageType string, payload interface{}) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	message := Message{
		Type:    messageType,
		Payload: payloadJSON,
	}

	return json.Marshal(message)
}

// NewCaseMessage - во вкладку приехал новый кейс
func NewCaseMessage(caso models.Case) ([]byte, error) {
	return NewMessage("nuevo_caso", caso)
}

// CaseUpdatedMessage - кейс изменился (estado, превью, тип)
func CaseUpdatedMessage(caso models.Case) ([]byte, error) {
	return NewMessage("caso_actualizado", caso)
}

// CaseRemovedMessage - кейс ушёл из вкладки (закрыт)
func CaseRemovedMessage(casoID string) ([]byte, error) {
	payload := struct {
		CasoID string `json:"casoId"`
	}{CasoID: casoID}
	return NewMessage("caso_eliminado", payload)
}

// NewChatMessage - живое сообщение в открытом чате
func NewChatMessage(m models.Message) ([]byte, error) {
	return NewMessage("nuevo_mensaje", m)
}

// UnreadMessage - изменился счётчик непрочитанных кейса
func UnreadMessage(casoID string, unread int, preview string) ([]byte, error) {
	payload := struct {
		CasoID  string `json:"casoId"`
		Unread  int    `json:"mensajesNoLeidos"`
		Preview string `json:"ultimoMensaje"`
	}{CasoID: casoID, Unread: unread, Preview: preview}
	return NewMessage("contador_noleidos", payload)
}

// AlertMessage - звуковое уведомление о входящем в неактивный кейс
func AlertMessage(caso models.Case, m models.Message) ([]byte, error) {
	payload := struct {
		Caso    models.Case    `json:"caso"`
		Mensaje models.Message `json:"mensaje"`
	}{Caso: caso, Mensaje: m}
	return NewMessage("alerta_mensaje", payload)
}

// ErrorMessage - сообщение об ошибке
func ErrorMessage(errorText string) ([]byte, error) {
	payload := struct {
		Error string `json:"error"`
	}{Error: errorText}
	return NewMessage("error", payload)
}
