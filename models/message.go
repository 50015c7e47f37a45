package models

import (
	"time"
)

// Типы содержимого сообщения
const (
	ContenidoTexto  = "text"
	ContenidoImagen = "image"
	ContenidoAudio  = "audio"
	ContenidoVideo  = "video"
)

// Message представляет собой одно сообщение внутри кейса.
// Сообщения неизменяемы: клиент их никогда не редактирует и не удаляет.
type Message struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"casoId"`
	SentAt       time.Time `json:"fecha"`
	Text         string    `json:"mensaje"`
	MediaID      string    `json:"mediaId,omitempty"`
	ContentType  string    `json:"tipoContenido"`
	FromCustomer bool      `json:"fromCustomer"` // true - от клиента, false - эхо асессора
}

// Preview возвращает короткий текст для превью в списке кейсов
func (m *Message) Preview() string {
	if m.Text != "" {
		return m.Text
	}
	switch m.ContentType {
	case ContenidoImagen:
		return "[imagen]"
	case ContenidoAudio:
		return "[audio]"
	case ContenidoVideo:
		return "[video]"
	}
	return ""
}
