package websocket

import (
	"github.com/sirupsen/logrus"

	"sacagente/models"
)

// HubNotifier транслирует события синхронизации в хаб фронтенда.
// Реализует syncer.Notifier.
type HubNotifier struct {
	hub *Hub
	log *logrus.Entry
}

// NewHubNotifier создает нотификатор поверх хаба
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, log: logrus.WithField("component", "notifier")}
}

func (n *HubNotifier) send(data []byte, err error) {
	if err != nil {
		n.log.WithError(err).Warn("кадр для фронтенда не собрался")
		return
	}
	n.hub.BroadcastRaw(data)
}

func (n *HubNotifier) CaseAdded(c models.Case) {
	n.send(NewCaseMessage(c))
}

func (n *HubNotifier) CaseUpdated(c models.Case) {
	n.send(CaseUpdatedMessage(c))
}

func (n *HubNotifier) CaseRemoved(casoID string) {
	n.send(CaseRemovedMessage(casoID))
}

func (n *HubNotifier) MessageReceived(m models.Message) {
	n.send(NewChatMessage(m))
}

func (n *HubNotifier) UnreadChanged(casoID string, unread int, preview string) {
	n.send(UnreadMessage(casoID, unread, preview))
}

func (n *HubNotifier) NewMessageAlert(c models.Case, m models.Message) {
	n.send(AlertMessage(c, m))
}
