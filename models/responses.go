package models

// Конверты ответов REST API бэкенда. Во всех есть человекочитаемое
// поле статуса, полезная нагрузка лежит рядом с ним.

// CaseListResponse - ответ obtenerCasosPorEstado и buscarPorCelular
type CaseListResponse struct {
	Status string `json:"mensaje"`
	Cases  []Case `json:"listadoCasos"`
}

// MessagesResponse - ответ mensajesChat (обратный хронологический порядок)
type MessagesResponse struct {
	Status   string    `json:"mensaje"`
	Messages []Message `json:"mensajes"`
}

// LastMessageResponse - ответ ultimoMensajeChat.
// Здесь "mensaje" - сам объект сообщения, а не текст статуса.
type LastMessageResponse struct {
	Message *Message `json:"mensaje"`
}

// SendMessageResponse - ответ enviarMensaje / enviarMensajeMultimedia
type SendMessageResponse struct {
	Status string   `json:"mensaje"`
	Sent   *Message `json:"mensajeEnviado"`
}

// CreateCaseResponse - ответ crearCaso
type CreateCaseResponse struct {
	Status string `json:"mensaje"`
	Case   *Case  `json:"caso"`
}

// TypeListResponse - ответ /tipos
type TypeListResponse struct {
	Status string     `json:"mensaje"`
	Types  []CaseType `json:"listaTipos"`
}

// TypeResponse - ответ obtenerTipoPorId
type TypeResponse struct {
	Status string    `json:"mensaje"`
	Type   *CaseType `json:"tipo"`
}

// StatusResponse - ответ операций без полезной нагрузки
// (marcarComoVisto, cerrarCaso, asignarAsesorAbreCaso)
type StatusResponse struct {
	Status string `json:"mensaje"`
}
