package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sacagente/models"
	"sacagente/store"
)

// OpenChat делает кейс активным: грузит историю, подписывается на его
// топик, сбрасывает непрочитанные и, для невзятого кейса, закрепляет
// его за асессором.
func (c *Controller) OpenChat(ctx context.Context, casoID string) error {
	caso, ok := c.Cases.Get(casoID)
	if !ok {
		return ErrCasoNoEncontrado
	}

	// смена активного кейса всегда явная: история прежнего чата
	// замещается, ничего не протекает между разговорами
	if _, err := c.Messages.LoadInitial(ctx, casoID, c.pageSize); err != nil {
		return fmt.Errorf("cargar historial: %w", err)
	}

	c.mu.Lock()
	c.activeCaseID = casoID
	old := c.activeSub
	var sub Subscription
	if c.vista == VistaEnProceso {
		sub = c.tr.Subscribe(topicCaso(casoID))
		c.activeSub = sub
	}
	c.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	if sub != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for raw := range sub.Events() {
				c.handleMessage(raw, casoID)
			}
		}()
	}

	if err := c.sess.SetOpenChat(ctx, c.vista, casoID); err != nil {
		c.log.WithError(err).Warn("открытый чат не сохранился в сессии")
	}

	// невзятый кейс открывается с неявным закреплением
	if c.vista == VistaEnProceso && caso.Estado == models.EstadoAbierto {
		c.claim(ctx, casoID)
	}

	// сброс счётчика локально только после успеха бэкенда: иначе можно
	// потерять след реально непрочитанных сообщений
	if caso.Unread > 0 {
		if err := c.api.MarkSeen(ctx, casoID); err != nil {
			c.log.WithError(err).WithField("caso", casoID).Warn("marcarComoVisto не прошёл, счётчик оставлен")
		} else {
			zero := 0
			c.Cases.UpdateField(casoID, store.CasePatch{Unread: &zero})
			c.notif.UnreadChanged(casoID, 0, caso.LastMessageText)
		}
	}

	c.log.WithField("caso", casoID).Info("chat abierto")
	return nil
}

// CloseChat закрывает активный чат (сам кейс остаётся как был)
func (c *Controller) CloseChat(ctx context.Context) {
	c.mu.Lock()
	casoID := c.activeCaseID
	c.activeCaseID = ""
	sub := c.activeSub
	c.activeSub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	c.Messages.Reset()
	if err := c.sess.ClearOpenChat(ctx, c.vista); err != nil {
		c.log.WithError(err).Warn("ключ открытого чата не очистился")
	}
	if casoID != "" {
		c.log.WithField("caso", casoID).Info("chat cerrado")
	}
}

// ClaimCase явно закрепляет кейс за асессором (переход 0 -> 1)
func (c *Controller) ClaimCase(ctx context.Context, casoID string) error {
	caso, ok := c.Cases.Get(casoID)
	if !ok {
		return ErrCasoNoEncontrado
	}
	if caso.Estado == models.EstadoCerrado {
		return ErrCasoCerrado
	}
	if caso.Estado == models.EstadoEnProceso {
		return nil // уже взят
	}
	return c.claim(ctx, casoID)
}

// claim применяет оптимистичный переход и откатывается перечитыванием
// авторитетного состояния, если REST не прошёл
func (c *Controller) claim(ctx context.Context, casoID string) error {
	enProceso := models.EstadoEnProceso
	c.Cases.UpdateField(casoID, store.CasePatch{Estado: &enProceso})
	if updated, ok := c.Cases.Get(casoID); ok {
		c.notif.CaseUpdated(updated)
	}

	if err := c.api.ClaimCase(ctx, casoID); err != nil {
		// журнала отката нет: восстанавливаемся полным перечитыванием
		c.log.WithError(err).WithField("caso", casoID).Warn("asignarAsesor не прошёл, перечитываем состояние")
		c.reloadCases(ctx)
		return fmt.Errorf("atender caso: %w", err)
	}
	return nil
}

// CloseCase закрывает кейс. Требует подтверждённого намерения:
// без confirmado запрос на бэкенд даже не уходит.
func (c *Controller) CloseCase(ctx context.Context, casoID string, confirmado bool) error {
	if !confirmado {
		return ErrConfirmacionRequerida
	}
	caso, ok := c.Cases.Get(casoID)
	if !ok {
		return ErrCasoNoEncontrado
	}
	if caso.Estado == models.EstadoCerrado {
		return ErrCasoCerrado
	}

	if err := c.api.CloseCase(ctx, casoID); err != nil {
		return fmt.Errorf("cerrar caso: %w", err)
	}

	if c.ActiveCaseID() == casoID {
		c.CloseChat(ctx)
	}
	if c.vista == VistaEnProceso {
		// закрытому кейсу во вкладке "в работе" больше нечего делать
		c.Cases.RemoveByID(casoID)
		c.notif.CaseRemoved(casoID)
	}
	c.log.WithField("caso", casoID).Info("caso cerrado")
	return nil
}

// SetEstado - переключение состояния из UI. Допустимы только переходы
// вперёд; попытка вернуть кейс в 0 отклоняется, прежнее состояние
// сохраняется и сообщается вызывающему.
func (c *Controller) SetEstado(ctx context.Context, casoID string, nuevoEstado int, confirmado bool) error {
	caso, ok := c.Cases.Get(casoID)
	if !ok {
		return ErrCasoNoEncontrado
	}

	switch nuevoEstado {
	case models.EstadoAbierto:
		if caso.Estado != models.EstadoAbierto {
			c.notif.CaseUpdated(caso) // перерисовать прежнее состояние
			return ErrEstadoInvalido
		}
		return nil
	case models.EstadoEnProceso:
		if caso.Estado == models.EstadoCerrado {
			c.notif.CaseUpdated(caso)
			return ErrCasoCerrado
		}
		if caso.Estado == models.EstadoEnProceso {
			return nil
		}
		return c.claim(ctx, casoID)
	case models.EstadoCerrado:
		return c.CloseCase(ctx, casoID, confirmado)
	default:
		return fmt.Errorf("estado %d desconocido", nuevoEstado)
	}
}

// SendText отправляет текстовое сообщение в активный чат
func (c *Controller) SendText(ctx context.Context, texto string) (*models.Message, error) {
	casoID := c.ActiveCaseID()
	if casoID == "" {
		return nil, ErrSinChatActivo
	}
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, ErrMensajeVacio
	}

	sent, err := c.api.SendText(ctx, casoID, texto)
	if err != nil {
		return nil, fmt.Errorf("enviar mensaje: %w", err)
	}
	c.commitSent(casoID, sent)
	return sent, nil
}

// SendMedia отправляет мультимедийное сообщение в активный чат.
// Данные к этому моменту уже ужаты под потолок (пакет media).
func (c *Controller) SendMedia(ctx context.Context, filename string, data []byte, tipoContenido string) (*models.Message, error) {
	casoID := c.ActiveCaseID()
	if casoID == "" {
		return nil, ErrSinChatActivo
	}
	if len(data) == 0 {
		return nil, ErrMensajeVacio
	}

	sent, err := c.api.SendMedia(ctx, casoID, filename, data, tipoContenido)
	if err != nil {
		return nil, fmt.Errorf("enviar multimedia: %w", err)
	}
	c.commitSent(casoID, sent)
	return sent, nil
}

// commitSent вносит подтверждённое исходящее сообщение в хранилище.
// Эхо того же сообщения из push-топика дедуплицируется по id.
func (c *Controller) commitSent(casoID string, sent *models.Message) {
	if sent == nil {
		return
	}
	if c.Messages.Append(*sent) {
		c.notif.MessageReceived(*sent)
	}
	preview := sent.Preview()
	at := sent.SentAt
	c.Cases.UpdateField(casoID, store.CasePatch{LastMessageText: &preview, LastActivityAt: &at})
	if updated, ok := c.Cases.Get(casoID); ok {
		c.notif.CaseUpdated(updated)
	}
}

// CreateCase создает кейс для нового исходящего разговора и открывает его
func (c *Controller) CreateCase(ctx context.Context, numeroWhatsapp, tipo string) (*models.Case, error) {
	if strings.TrimSpace(numeroWhatsapp) == "" || strings.TrimSpace(tipo) == "" {
		return nil, fmt.Errorf("crear caso: %w", ErrMensajeVacio)
	}

	caso, err := c.api.CreateCase(ctx, numeroWhatsapp, tipo)
	if err != nil {
		return nil, fmt.Errorf("crear caso: %w", err)
	}
	if c.Cases.InsertOrIgnore(*caso) {
		c.notif.CaseAdded(*caso)
	}
	if err := c.OpenChat(ctx, caso.ID); err != nil {
		c.log.WithError(err).WithField("caso", caso.ID).Warn("кейс создан, но чат не открылся")
	}
	return caso, nil
}

// LoadMoreCases грузит следующую страницу списка. Вызовы дебаунсятся
// (150мс) и гейтятся флагом загрузки: запрос возле границы прокрутки во
// время уже идущей загрузки просто отбрасывается - следующее событие
// прокрутки повторит попытку.
func (c *Controller) LoadMoreCases(ctx context.Context) store.CasePage {
	c.mu.Lock()
	if c.loadingMore || !c.hasMore || time.Since(c.lastLoadMore) < loadMoreDebounce {
		c.mu.Unlock()
		return store.CasePage{}
	}
	c.loadingMore = true
	c.lastLoadMore = time.Now()
	page := c.nextPage
	term := c.lastSearch
	c.mu.Unlock()

	var result store.CasePage
	if term != "" {
		result = c.Cases.SearchMerged(ctx, term, c.estados(), page, c.pageSize)
	} else {
		result = c.Cases.LoadMerged(ctx, c.estados(), page, c.pageSize)
	}

	c.mu.Lock()
	c.loadingMore = false
	c.nextPage = page + 1
	c.hasMore = result.HasMore
	c.mu.Unlock()

	c.fetchPreviews(result.Items)
	for _, caso := range result.Items {
		c.notif.CaseAdded(caso)
	}
	return result
}

// SearchInput принимает сырой ввод строки поиска. Запрос уходит после
// паузы в наборе (500мс); подряд одинаковые строки не перезапускают поиск.
func (c *Controller) SearchInput(term string) {
	term = strings.TrimSpace(term)

	c.mu.Lock()
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.searchTimer = time.AfterFunc(searchDebounce, func() {
		c.doSearch(term)
	})
	c.mu.Unlock()
}

func (c *Controller) doSearch(term string) {
	c.mu.Lock()
	if term == c.lastSearch {
		c.mu.Unlock()
		return // дедупликация одинаковых запросов
	}
	c.lastSearch = term
	c.mu.Unlock()

	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	if term == "" {
		// пустая строка выключает режим поиска и возвращает обычную пагинацию
		c.reloadCases(ctx)
		return
	}

	result := c.Cases.SearchMerged(ctx, term, c.estados(), 0, c.pageSize)
	c.mu.Lock()
	c.nextPage = 1
	c.hasMore = result.HasMore
	c.mu.Unlock()

	c.fetchPreviews(result.Items)
	for _, caso := range c.Cases.SortedView() {
		c.notif.CaseUpdated(caso)
	}
}

// LoadOlderMessages листает историю активного чата назад.
// Возвращает число добавленных сообщений - дельту для якоря прокрутки.
func (c *Controller) LoadOlderMessages(ctx context.Context) (int, error) {
	if c.ActiveCaseID() == "" {
		return 0, ErrSinChatActivo
	}
	added, err := c.Messages.LoadOlder(ctx)
	if err != nil {
		return 0, fmt.Errorf("cargar mensajes antiguos: %w", err)
	}
	return added, nil
}
