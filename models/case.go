package models

import (
	"time"
)

// Состояния кейса. Бэкенд присылает их числом в поле "estado".
const (
	EstadoAbierto   = 0 // новый, никем не взят
	EstadoEnProceso = 1 // взят асессором
	EstadoCerrado   = 2 // закрыт, терминальное состояние
)

// Case представляет собой один кейс поддержки (разговор с клиентом WhatsApp)
type Case struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"fecha"`
	ResolvedAt   *time.Time `json:"fechaResolucion,omitempty"`
	CaseNumber   string     `json:"numeroCaso"`
	Estado       int        `json:"estado"`
	UserNumber   string     `json:"numeroUsuario"` // номер телефона клиента
	TypeID       string     `json:"tipoId,omitempty"`
	OpenedByID   string     `json:"asesorAbreId,omitempty"`
	ClosedByID   string     `json:"asesorCierraId,omitempty"`
	Unread       int        `json:"mensajesNoLeidos"`
	LastSeenAt   *time.Time `json:"ultimaVezVisto,omitempty"`

	// Локальные поля превью, бэкенд их не присылает.
	// Заполняются контроллером из ultimoMensajeChat и push-событий.
	LastMessageText string    `json:"-"`
	LastActivityAt  time.Time `json:"-"`
}

// EffectiveTime возвращает время последней активности кейса.
// По нему сортируется список (самые свежие сверху).
func (c *Case) EffectiveTime() time.Time {
	if !c.LastActivityAt.IsZero() {
		return c.LastActivityAt
	}
	return c.CreatedAt
}

// Closed сообщает, находится ли кейс в терминальном состоянии
func (c *Case) Closed() bool {
	return c.Estado == EstadoCerrado
}

// CaseType представляет собой тип кейса (справочник)
type CaseType struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}
