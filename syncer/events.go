package syncer

import (
	"sacagente/models"
	"sacagente/store"
)

// Правила сведения push-событий с пагинированным REST-состоянием.
// Все операции построены так, чтобы порядок прихода события и страницы
// не имел значения: вставка дедуплицирована, патчи по отсутствующим
// кейсам - no-op.

// handleNewCase - топик casos/nuevosCasos
func (c *Controller) handleNewCase(raw []byte) {
	caso, err := models.DecodeNewCase(raw)
	if err != nil {
		c.log.WithError(err).Warn("событие nuevosCasos отброшено")
		return
	}

	if !c.Cases.InsertOrIgnore(*caso) {
		// кейс уже приехал страницей - событие и загрузка коммутируют
		return
	}
	c.log.WithField("caso", caso.ID).Info("nuevo caso recibido")
	c.notif.CaseAdded(*caso)

	// превью и тип доезжают асинхронно, кейс виден сразу
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.fetchPreview(*caso)
	}()
}

// handleClaimed - топик casos/atendidos: кто-то из асессоров взял кейс
func (c *Controller) handleClaimed(raw []byte) {
	ev, err := models.DecodeCaseClaimed(raw)
	if err != nil {
		c.log.WithError(err).Warn("событие atendidos отброшено")
		return
	}

	// патчим только estado и только если кейс вообще загружен;
	// кейс с незагруженной страницы догонит своё состояние при загрузке
	if !c.Cases.UpdateField(ev.CaseID, store.CasePatch{Estado: &ev.Estado}) {
		return
	}
	if updated, ok := c.Cases.Get(ev.CaseID); ok {
		c.notif.CaseUpdated(updated)
	}
}

// handleMessage - сообщение из персонального или глобального топика.
// fallbackCaseID подставляется, когда персональный топик не дублирует
// casoId в теле.
func (c *Controller) handleMessage(raw []byte, fallbackCaseID string) {
	m, err := models.DecodeMessage(raw, fallbackCaseID)
	if err != nil {
		c.log.WithError(err).Warn("событие mensaje отброшено")
		return
	}

	preview := m.Preview()
	at := m.SentAt

	if m.CaseID == c.ActiveCaseID() {
		// активный кейс: живое добавление, счётчик непрочитанных всегда 0
		if c.Messages.Append(*m) {
			c.notif.MessageReceived(*m)
		}
		zero := 0
		c.Cases.UpdateField(m.CaseID, store.CasePatch{
			Unread:          &zero,
			LastMessageText: &preview,
			LastActivityAt:  &at,
		})
		c.notif.UnreadChanged(m.CaseID, 0, preview)
		return
	}

	caso, ok := c.Cases.Get(m.CaseID)
	if !ok {
		// кейс не загружен в эту вкладку - событие не для нас
		return
	}

	if !m.FromCustomer {
		// эхо асессора: превью обновляем, непрочитанные не трогаем
		c.Cases.UpdateField(m.CaseID, store.CasePatch{
			LastMessageText: &preview,
			LastActivityAt:  &at,
		})
		if updated, ok := c.Cases.Get(m.CaseID); ok {
			c.notif.CaseUpdated(updated)
		}
		return
	}

	unread := caso.Unread + 1
	c.Cases.UpdateField(m.CaseID, store.CasePatch{
		Unread:          &unread,
		LastMessageText: &preview,
		LastActivityAt:  &at,
	})
	c.notif.UnreadChanged(m.CaseID, unread, preview)
	if updated, ok := c.Cases.Get(m.CaseID); ok {
		c.notif.NewMessageAlert(updated, *m)
	}
}
