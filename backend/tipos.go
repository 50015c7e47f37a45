package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sacagente/models"
)

// Types возвращает справочник типов кейсов
func (c *Client) Types(ctx context.Context) ([]models.CaseType, error) {
	var resp models.TypeListResponse
	if err := c.do(ctx, http.MethodGet, "/tipos", nil, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Types, nil
}

// TypeByID возвращает тип кейса по идентификатору
func (c *Client) TypeByID(ctx context.Context, tipoID string) (*models.CaseType, error) {
	var resp models.TypeResponse
	path := "/tipos/obtenerTipoPorId/" + url.PathEscape(tipoID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Type == nil {
		return nil, fmt.Errorf("obtenerTipoPorId: тип %s не найден", tipoID)
	}
	return resp.Type, nil
}
