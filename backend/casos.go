package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sacagente/models"
)

// CasesByEstado возвращает страницу кейсов в заданном состоянии
func (c *Client) CasesByEstado(ctx context.Context, estado, page, size int) ([]models.Case, error) {
	var resp models.CaseListResponse
	path := fmt.Sprintf("/casos/obtenerCasosPorEstado/%d", estado)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Cases, nil
}

// SearchByPhone ищет кейсы по подстроке номера телефона клиента
func (c *Client) SearchByPhone(ctx context.Context, numero string, estado, page, size int) ([]models.Case, error) {
	var resp models.CaseListResponse
	path := fmt.Sprintf("/casos/buscarPorCelular/%s/%d", url.PathEscape(numero), estado)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Cases, nil
}

// MarkSeen отмечает кейс просмотренным (сбрасывает счётчик непрочитанных на бэкенде)
func (c *Client) MarkSeen(ctx context.Context, casoID string) error {
	path := "/casos/marcarComoVisto/" + url.PathEscape(casoID)
	return c.do(ctx, http.MethodPut, path, nil, nil, "", nil)
}

// CloseCase закрывает кейс
func (c *Client) CloseCase(ctx context.Context, casoID string) error {
	path := "/casos/cerrarCaso/" + url.PathEscape(casoID)
	return c.do(ctx, http.MethodPut, path, nil, nil, "", nil)
}

// CreateCase создает кейс для нового исходящего разговора
func (c *Client) CreateCase(ctx context.Context, numeroWhatsapp, tipo string) (*models.Case, error) {
	var resp models.CreateCaseResponse
	path := fmt.Sprintf("/casos/crearCaso/%s/%s", url.PathEscape(numeroWhatsapp), url.PathEscape(tipo))
	if err := c.do(ctx, http.MethodPost, path, nil, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Case == nil {
		return nil, fmt.Errorf("crearCaso: бэкенд не вернул кейс (%s)", resp.Status)
	}
	return resp.Case, nil
}
