package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sacagente/models"
)

// CaseLister - кусок REST-клиента, который нужен хранилищу кейсов
type CaseLister interface {
	CasesByEstado(ctx context.Context, estado, page, size int) ([]models.Case, error)
	SearchByPhone(ctx context.Context, numero string, estado, page, size int) ([]models.Case, error)
}

// CasePage - одна загруженная страница.
// HasMore считается по эвристике "страница ровно полная": если последняя
// страница случайно полная, получится ложное "есть ещё" - следующая
// загрузка вернёт пусто и сбросит флаг. Так ведёт себя и бэкенд-контракт,
// здесь это сохранено сознательно.
type CasePage struct {
	Items   []models.Case
	HasMore bool
}

// CasePatch - частичное обновление кейса; nil-поля не трогаются
type CasePatch struct {
	Estado          *int
	Unread          *int
	LastMessageText *string
	LastActivityAt  *time.Time
	TypeID          *string
}

// CaseStore хранит рабочий набор кейсов текущей вкладки (в работе / закрытые).
// Кейс встречается максимум один раз: любая вставка идёт через дедупликацию
// по id, поэтому push-событие и параллельная загрузка страницы коммутируют.
type CaseStore struct {
	api CaseLister
	log *logrus.Entry

	mu         sync.RWMutex
	cases      map[string]*models.Case
	searchMode bool
}

// NewCaseStore создает пустое хранилище поверх REST-клиента
func NewCaseStore(api CaseLister) *CaseStore {
	return &CaseStore{
		api:   api,
		log:   logrus.WithField("component", "casestore"),
		cases: make(map[string]*models.Case),
	}
}

// LoadPage загружает одну страницу кейсов заданного состояния и вливает её
// в хранилище. Ошибка бэкенда не пробрасывается: логируется, а вызывающий
// получает пустую страницу с HasMore=false (пустота неразличима с "данных нет").
func (s *CaseStore) LoadPage(ctx context.Context, estado, page, size int) CasePage {
	s.mu.RLock()
	searching := s.searchMode
	s.mu.RUnlock()
	if searching {
		// обычная пагинация приостановлена, пока активен поиск
		s.log.Debug("LoadPage пропущен: активен режим поиска")
		return CasePage{}
	}

	items, err := s.api.CasesByEstado(ctx, estado, page, size)
	if err != nil {
		s.log.WithError(err).WithField("estado", estado).Warn("загрузка страницы не удалась")
		return CasePage{}
	}
	s.commit(items)
	return CasePage{Items: items, HasMore: len(items) == size}
}

// LoadMerged грузит страницы сразу нескольких состояний (fan-out) и вливает
// результат одним коммитом после завершения всех запросов. Частичных коммитов
// нет; упавший запрос деградирует до пустого списка.
func (s *CaseStore) LoadMerged(ctx context.Context, estados []int, page, size int) CasePage {
	s.mu.RLock()
	searching := s.searchMode
	s.mu.RUnlock()
	if searching {
		s.log.Debug("LoadMerged пропущен: активен режим поиска")
		return CasePage{}
	}

	results := make([][]models.Case, len(estados))
	full := make([]bool, len(estados))
	var wg sync.WaitGroup
	for i, estado := range estados {
		wg.Add(1)
		go func(i, estado int) {
			defer wg.Done()
			items, err := s.api.CasesByEstado(ctx, estado, page, size)
			if err != nil {
				s.log.WithError(err).WithField("estado", estado).Warn("загрузка страницы не удалась")
				return
			}
			results[i] = items
			full[i] = len(items) == size
		}(i, estado)
	}
	wg.Wait()

	merged := make([]models.Case, 0, size*len(estados))
	hasMore := false
	for i := range results {
		merged = append(merged, results[i]...)
		hasMore = hasMore || full[i]
	}
	s.commit(merged)
	return CasePage{Items: merged, HasMore: hasMore}
}

// Search переводит хранилище в режим поиска: содержимое заменяется первой
// страницей результатов, дальнейшие страницы доливаются. Контракт HasMore
// тот же, что у LoadPage.
func (s *CaseStore) Search(ctx context.Context, term string, estado, page, size int) CasePage {
	items, err := s.api.SearchByPhone(ctx, term, estado, page, size)
	if err != nil {
		s.log.WithError(err).WithField("term", term).Warn("поиск не удался")
		return CasePage{}
	}

	s.mu.Lock()
	s.searchMode = true
	if page == 0 {
		s.cases = make(map[string]*models.Case)
	}
	s.mu.Unlock()

	s.commit(items)
	return CasePage{Items: items, HasMore: len(items) == size}
}

// SearchMerged ищет по номеру телефона сразу в нескольких состояниях,
// как LoadMerged: fan-out по состояниям, один коммит. Страница 0
// замещает содержимое хранилища результатами поиска.
func (s *CaseStore) SearchMerged(ctx context.Context, term string, estados []int, page, size int) CasePage {
	results := make([][]models.Case, len(estados))
	full := make([]bool, len(estados))
	var wg sync.WaitGroup
	for i, estado := range estados {
		wg.Add(1)
		go func(i, estado int) {
			defer wg.Done()
			items, err := s.api.SearchByPhone(ctx, term, estado, page, size)
			if err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{"term": term, "estado": estado}).Warn("поиск не удался")
				return
			}
			results[i] = items
			full[i] = len(items) == size
		}(i, estado)
	}
	wg.Wait()

	s.mu.Lock()
	s.searchMode = true
	if page == 0 {
		s.cases = make(map[string]*models.Case)
	}
	s.mu.Unlock()

	merged := make([]models.Case, 0, size*len(estados))
	hasMore := false
	for i := range results {
		merged = append(merged, results[i]...)
		hasMore = hasMore || full[i]
	}
	s.commit(merged)
	return CasePage{Items: merged, HasMore: hasMore}
}

// ClearSearch выключает режим поиска и очищает хранилище;
// следующий LoadPage наполнит его заново
func (s *CaseStore) ClearSearch() {
	s.mu.Lock()
	s.searchMode = false
	s.cases = make(map[string]*models.Case)
	s.mu.Unlock()
}

// SearchMode сообщает, активен ли режим поиска
func (s *CaseStore) SearchMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchMode
}

// InsertOrIgnore вставляет кейс, если его ещё нет. Возвращает true,
// если вставка произошла.
func (s *CaseStore) InsertOrIgnore(c models.Case) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return false
	}
	cc := c
	s.cases[c.ID] = &cc
	return true
}

// UpdateField применяет частичное обновление. Отсутствующий кейс - no-op
// (он принадлежит ещё не загруженной странице).
func (s *CaseStore) UpdateField(casoID string, patch CasePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[casoID]
	if !ok {
		return false
	}
	if patch.Estado != nil {
		c.Estado = *patch.Estado
	}
	if patch.Unread != nil {
		c.Unread = *patch.Unread
	}
	if patch.LastMessageText != nil {
		c.LastMessageText = *patch.LastMessageText
	}
	if patch.LastActivityAt != nil {
		c.LastActivityAt = *patch.LastActivityAt
	}
	if patch.TypeID != nil {
		c.TypeID = *patch.TypeID
	}
	return true
}

// RemoveByID удаляет кейс (например, закрытый во вкладке "в работе")
func (s *CaseStore) RemoveByID(casoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[casoID]; !ok {
		return false
	}
	delete(s.cases, casoID)
	return true
}

// Get возвращает копию кейса по id
func (s *CaseStore) Get(casoID string) (models.Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[casoID]
	if !ok {
		return models.Case{}, false
	}
	return *c, true
}

// Len возвращает количество кейсов в хранилище
func (s *CaseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// SortedView возвращает кейсы по убыванию последней активности
// (свежие сверху, как в списке чатов)
func (s *CaseStore) SortedView() []models.Case {
	s.mu.RLock()
	out := make([]models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, *c)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].EffectiveTime(), out[j].EffectiveTime()
		if ti.Equal(tj) {
			return out[i].ID < out[j].ID
		}
		return ti.After(tj)
	})
	return out
}

// commit вливает пачку кейсов с дедупликацией
func (s *CaseStore) commit(items []models.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range items {
		if _, ok := s.cases[items[i].ID]; ok {
			continue
		}
		cc := items[i]
		s.cases[cc.ID] = &cc
	}
}
