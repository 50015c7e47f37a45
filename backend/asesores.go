package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ClaimCase закрепляет кейс за текущим асессором (переход 0 -> 1).
// Бэкенд после успеха рассылает событие в топик casos/atendidos.
func (c *Client) ClaimCase(ctx context.Context, casoID string) error {
	path := "/asesores/asignarAsesorAbreCaso/" + url.PathEscape(casoID)
	return c.do(ctx, http.MethodPut, path, nil, nil, "", nil)
}
