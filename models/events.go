package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Push-события приходят с брокера нетипизированным JSON.
// Здесь они превращаются в явные варианты с обязательными полями;
// всё, что не прошло валидацию, отбрасывается на уровне контроллера.

var ErrEventoInvalido = errors.New("payload de evento inválido")

// CaseClaimedEvent - событие топика casos/atendidos:
// другой асессор взял кейс, у кейса поменялось состояние
type CaseClaimedEvent struct {
	CaseID    string `json:"id"`
	Estado    int    `json:"estado"`
	AdvisorID string `json:"asesorAbreId"`
}

// DecodeNewCase разбирает событие casos/nuevosCasos
func DecodeNewCase(raw []byte) (*Case, error) {
	var c Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventoInvalido, err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: falta id", ErrEventoInvalido)
	}
	if c.Estado < EstadoAbierto || c.Estado > EstadoCerrado {
		return nil, fmt.Errorf("%w: estado %d fuera de rango", ErrEventoInvalido, c.Estado)
	}
	return &c, nil
}

// DecodeCaseClaimed разбирает событие casos/atendidos
func DecodeCaseClaimed(raw []byte) (*CaseClaimedEvent, error) {
	var e CaseClaimedEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventoInvalido, err)
	}
	if e.CaseID == "" {
		return nil, fmt.Errorf("%w: falta id", ErrEventoInvalido)
	}
	if e.Estado == 0 {
		// топик atendidos всегда несёт переход 0->1
		e.Estado = EstadoEnProceso
	}
	return &e, nil
}

// DecodeMessage разбирает событие casos/{id}/mensajes или глобального топика.
// У сообщений персонального топика casoId может отсутствовать,
// тогда берётся fallbackCaseID подписки.
func DecodeMessage(raw []byte, fallbackCaseID string) (*Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventoInvalido, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: falta id", ErrEventoInvalido)
	}
	if m.CaseID == "" {
		m.CaseID = fallbackCaseID
	}
	if m.CaseID == "" {
		return nil, fmt.Errorf("%w: falta casoId", ErrEventoInvalido)
	}
	if m.ContentType == "" {
		m.ContentType = ContenidoTexto
	}
	return &m, nil
}
