package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"sacagente/models"
)

// ChatMessages возвращает страницу сообщений кейса.
// Бэкенд отдаёт их в обратном хронологическом порядке (свежие первыми).
func (c *Client) ChatMessages(ctx context.Context, casoID string, page, size int) ([]models.Message, error) {
	var resp models.MessagesResponse
	path := "/mensajes/mensajesChat/" + url.PathEscape(casoID)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// LastMessage возвращает последнее сообщение кейса (nil, если сообщений нет)
func (c *Client) LastMessage(ctx context.Context, casoID string) (*models.Message, error) {
	var resp models.LastMessageResponse
	path := "/mensajes/ultimoMensajeChat/" + url.PathEscape(casoID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// SendText отправляет текстовое сообщение клиенту
func (c *Client) SendText(ctx context.Context, casoID, texto string) (*models.Message, error) {
	var resp models.SendMessageResponse
	path := "/mensajes/enviarMensaje/" + url.PathEscape(casoID)
	q := url.Values{}
	q.Set("mensaje", texto)
	if err := c.do(ctx, http.MethodPost, path, q, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Sent, nil
}

// SendMedia отправляет мультимедийное сообщение (multipart: file + tipoContenido)
func (c *Client) SendMedia(ctx context.Context, casoID, filename string, data []byte, tipoContenido string) (*models.Message, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}
	if err := w.WriteField("tipoContenido", tipoContenido); err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}

	var resp models.SendMessageResponse
	path := "/mensajes/enviarMensajeMultimedia/" + url.PathEscape(casoID)
	if err := c.do(ctx, http.MethodPost, path, nil, &body, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return resp.Sent, nil
}

// Media скачивает бинарное содержимое по mediaId
func (c *Client) Media(ctx context.Context, mediaID string) ([]byte, string, error) {
	return c.raw(ctx, "/mensajes/mensajeAPIWhatsapp/"+url.PathEscape(mediaID))
}
