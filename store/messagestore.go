package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"sacagente/models"
)

// MessageLister - кусок REST-клиента, который нужен хранилищу сообщений
type MessageLister interface {
	ChatMessages(ctx context.Context, casoID string, page, size int) ([]models.Message, error)
}

// MessageStore хранит историю ровно одного открытого кейса.
// Бэкенд отдаёт страницы в обратном хронологическом порядке; наружу
// история всегда отдаётся хронологически. Пагинация назад только
// добавляет старые сообщения спереди и никогда не переупорядочивает
// уже загруженные.
type MessageStore struct {
	api MessageLister
	log *logrus.Entry

	mu       sync.RWMutex
	caseID   string
	messages []models.Message
	ids      map[string]struct{}
	hasMore  bool
	nextPage int
	pageSize int
}

// NewMessageStore создает пустое хранилище поверх REST-клиента
func NewMessageStore(api MessageLister) *MessageStore {
	return &MessageStore{
		api: api,
		log: logrus.WithField("component", "messagestore"),
		ids: make(map[string]struct{}),
	}
}

// LoadInitial грузит самую свежую страницу кейса и замещает прежнее
// содержимое целиком. Смена кейса обязана идти через этот вызов -
// иначе история одного чата протечёт в другой при быстром переключении.
func (s *MessageStore) LoadInitial(ctx context.Context, casoID string, size int) ([]models.Message, error) {
	items, err := s.api.ChatMessages(ctx, casoID, 0, size)
	if err != nil {
		return nil, err
	}
	chrono := reverse(items)

	s.mu.Lock()
	s.caseID = casoID
	s.messages = chrono
	s.ids = make(map[string]struct{}, len(chrono))
	for i := range chrono {
		s.ids[chrono[i].ID] = struct{}{}
	}
	s.hasMore = len(items) == size
	s.nextPage = 1
	s.pageSize = size
	s.mu.Unlock()

	return s.Messages(), nil
}

// LoadOlder грузит следующую страницу вглубь истории и пристыковывает её
// спереди. Возвращает число добавленных сообщений - по нему UI
// восстанавливает позицию прокрутки.
func (s *MessageStore) LoadOlder(ctx context.Context) (int, error) {
	s.mu.RLock()
	casoID, page, size := s.caseID, s.nextPage, s.pageSize
	hasMore := s.hasMore
	s.mu.RUnlock()

	if casoID == "" || !hasMore {
		return 0, nil
	}

	items, err := s.api.ChatMessages(ctx, casoID, page, size)
	if err != nil {
		return 0, err
	}
	chrono := reverse(items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.caseID != casoID {
		// кейс успели переключить, страница устарела - молча выбрасываем
		return 0, nil
	}

	added := make([]models.Message, 0, len(chrono))
	for i := range chrono {
		if _, dup := s.ids[chrono[i].ID]; dup {
			continue
		}
		s.ids[chrono[i].ID] = struct{}{}
		added = append(added, chrono[i])
	}
	s.messages = append(added, s.messages...)
	s.hasMore = len(items) == size
	s.nextPage = page + 1
	return len(added), nil
}

// Append добавляет живое сообщение в хвост. Идемпотентен по id:
// повторная доставка push-события не дублирует сообщение.
func (s *MessageStore) Append(m models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.caseID == "" || m.CaseID != s.caseID {
		return false
	}
	if _, dup := s.ids[m.ID]; dup {
		return false
	}
	s.ids[m.ID] = struct{}{}
	s.messages = append(s.messages, m)
	return true
}

// Reset очищает хранилище (чат закрыт)
func (s *MessageStore) Reset() {
	s.mu.Lock()
	s.caseID = ""
	s.messages = nil
	s.ids = make(map[string]struct{})
	s.hasMore = false
	s.nextPage = 0
	s.mu.Unlock()
}

// CaseID возвращает id кейса, чья история загружена ("" - никакого)
func (s *MessageStore) CaseID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caseID
}

// HasMore сообщает, есть ли ещё страницы вглубь истории
// (та же эвристика точного размера страницы, что и у кейсов)
func (s *MessageStore) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Messages возвращает копию истории в хронологическом порядке
func (s *MessageStore) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len возвращает количество загруженных сообщений
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func reverse(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}
	return out
}
