package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sacagente/models"
	"sacagente/session"
	"sacagente/store"
)

// Вкладки клиента. У каждой вкладки свой контроллер со своими
// хранилищами; между вкладками ничего не разделяется, кроме
// процесс-глобального транспорта.
const (
	VistaEnProceso = "en-proceso"
	VistaCerrados  = "cerrados"
)

// Ошибки машины состояний и пользовательской валидации
var (
	ErrEstadoInvalido        = errors.New("no se puede volver a poner el caso como sin atender")
	ErrCasoCerrado           = errors.New("el caso está cerrado y es de solo lectura")
	ErrConfirmacionRequerida = errors.New("cerrar un caso requiere confirmación explícita")
	ErrCasoNoEncontrado      = errors.New("caso no encontrado en la vista actual")
	ErrSinChatActivo         = errors.New("no hay chat abierto")
	ErrMensajeVacio          = errors.New("el mensaje no puede estar vacío")
)

const (
	searchDebounce   = 500 * time.Millisecond
	loadMoreDebounce = 150 * time.Millisecond

	topicNuevosCasos = "/topic/casos/nuevosCasos"
	topicAtendidos   = "/topic/casos/atendidos"
	topicMensajes    = "/topic/mensajes" // глобальный поток для учёта непрочитанных
)

func topicCaso(casoID string) string {
	return "/topic/casos/" + casoID + "/mensajes"
}

// API - всё, что контроллеру нужно от REST-бэкенда.
// *backend.Client реализует интерфейс целиком; тесты подставляют фейк.
type API interface {
	store.CaseLister
	store.MessageLister
	store.TypeLookup
	MarkSeen(ctx context.Context, casoID string) error
	CloseCase(ctx context.Context, casoID string) error
	ClaimCase(ctx context.Context, casoID string) error
	CreateCase(ctx context.Context, numeroWhatsapp, tipo string) (*models.Case, error)
	LastMessage(ctx context.Context, casoID string) (*models.Message, error)
	SendText(ctx context.Context, casoID, texto string) (*models.Message, error)
	SendMedia(ctx context.Context, casoID, filename string, data []byte, tipoContenido string) (*models.Message, error)
}

// Subscription - один поток push-событий
type Subscription interface {
	Events() <-chan []byte
	Unsubscribe()
}

// Transport - pub/sub соединение с брокером
type Transport interface {
	Connect(ctx context.Context)
	Subscribe(topic string) Subscription
	Disconnect()
}

// Notifier получает побочные эффекты синхронизации (обновления для UI,
// звуковые уведомления). Вызывается из горутин контроллера.
type Notifier interface {
	CaseAdded(c models.Case)
	CaseUpdated(c models.Case)
	CaseRemoved(casoID string)
	MessageReceived(m models.Message)
	UnreadChanged(casoID string, unread int, preview string)
	NewMessageAlert(c models.Case, m models.Message)
}

// NopNotifier - заглушка для тестов и безголового запуска
type NopNotifier struct{}

func (NopNotifier) CaseAdded(models.Case)                  {}
func (NopNotifier) CaseUpdated(models.Case)                {}
func (NopNotifier) CaseRemoved(string)                     {}
func (NopNotifier) MessageReceived(models.Message)         {}
func (NopNotifier) UnreadChanged(string, int, string)      {}
func (NopNotifier) NewMessageAlert(models.Case, models.Message) {}

// Config - явный контекст контроллера. Никаких скрытых глобалей:
// кто асессор, какая вкладка и куда писать сессию, задаётся здесь.
type Config struct {
	API       API
	Transport Transport
	Session   session.Store
	Notifier  Notifier
	AsesorID  string
	Vista     string
	PageSize  int
}

// Controller - контроллер синхронизации одной вкладки: сводит push-события
// брокера и страницы REST в согласованные хранилища и управляет активным
// (открытым) кейсом.
type Controller struct {
	api   API
	tr    Transport
	sess  session.Store
	notif Notifier
	log   *logrus.Entry

	asesorID string
	vista    string
	pageSize int

	Cases    *store.CaseStore
	Messages *store.MessageStore
	Types    *store.TypeCache

	mu           sync.Mutex
	activeCaseID string
	nextPage     int
	hasMore      bool
	loadingMore  bool // cargandoMasCasos: защёлка от перекрывающихся загрузок
	lastLoadMore time.Time
	searchTimer  *time.Timer
	lastSearch   string // последний фактически выполненный запрос
	activeSub    Subscription
	subs         []Subscription

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создает контроллер; до Start ничего не грузится и не подписывается
func New(cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	return &Controller{
		api:      cfg.API,
		tr:       cfg.Transport,
		sess:     cfg.Session,
		notif:    cfg.Notifier,
		log:      logrus.WithFields(logrus.Fields{"component": "syncer", "vista": cfg.Vista}),
		asesorID: cfg.AsesorID,
		vista:    cfg.Vista,
		pageSize: cfg.PageSize,
		Cases:    store.NewCaseStore(cfg.API),
		Messages: store.NewMessageStore(cfg.API),
		Types:    store.NewTypeCache(cfg.API),
	}
}

// estados возвращает состояния кейсов текущей вкладки
func (c *Controller) estados() []int {
	if c.vista == VistaCerrados {
		return []int{models.EstadoCerrado}
	}
	// вкладка "в работе" показывает и невзятые, и взятые кейсы
	return []int{models.EstadoAbierto, models.EstadoEnProceso}
}

// Start грузит первую страницу, восстанавливает открытый чат из сессии
// и (для вкладки "в работе") подключает push-топики.
func (c *Controller) Start(ctx context.Context) {
	c.runCtx, c.cancel = context.WithCancel(ctx)

	if err := c.Types.Preload(c.runCtx); err != nil {
		c.log.WithError(err).Warn("справочник типов недоступен, кэш будет греться лениво")
	}

	page := c.Cases.LoadMerged(c.runCtx, c.estados(), 0, c.pageSize)
	c.mu.Lock()
	c.nextPage = 1
	c.hasMore = page.HasMore
	c.mu.Unlock()
	c.fetchPreviews(page.Items)

	if c.vista == VistaEnProceso {
		c.tr.Connect(c.runCtx)
		c.listen(c.tr.Subscribe(topicNuevosCasos), c.handleNewCase)
		c.listen(c.tr.Subscribe(topicAtendidos), c.handleClaimed)
		c.listen(c.tr.Subscribe(topicMensajes), func(raw []byte) { c.handleMessage(raw, "") })
	}

	c.restoreOpenChat()
	c.log.WithField("casos", c.Cases.Len()).Info("контроллер запущен")
}

// Stop снимает подписки вкладки и останавливает фоновые горутины.
// Транспорт не трогается: он общий для процесса.
func (c *Controller) Stop() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	if c.activeSub != nil {
		subs = append(subs, c.activeSub)
		c.activeSub = nil
	}
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	cancel := c.cancel
	c.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.log.Info("контроллер остановлен")
}

// ActiveCaseID возвращает id открытого кейса ("" - чат закрыт)
func (c *Controller) ActiveCaseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeCaseID
}

// HasMoreCases сообщает, ждём ли ещё страницы списка
func (c *Controller) HasMoreCases() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// listen закрепляет подписку и читает её до закрытия канала
func (c *Controller) listen(sub Subscription, handler func([]byte)) {
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for raw := range sub.Events() {
			handler(raw)
		}
	}()
}

// restoreOpenChat поднимает chatAbierto_<vista> из сессии
func (c *Controller) restoreOpenChat() {
	saved, err := c.sess.OpenChat(c.runCtx, c.vista)
	if err != nil {
		c.log.WithError(err).Warn("сессия недоступна, открытый чат не восстановлен")
		return
	}
	if saved == "" {
		return
	}
	if _, ok := c.Cases.Get(saved); !ok {
		// кейса больше нет в этой вкладке - подчищаем ключ
		_ = c.sess.ClearOpenChat(c.runCtx, c.vista)
		return
	}
	if err := c.OpenChat(c.runCtx, saved); err != nil {
		c.log.WithError(err).WithField("caso", saved).Warn("не удалось восстановить открытый чат")
	}
}

// reloadCases перечитывает первую страницу с бэкенда. Используется как
// восстановление после неудачного оптимистичного обновления: локального
// журнала отката нет, авторитетен только бэкенд.
func (c *Controller) reloadCases(ctx context.Context) {
	c.Cases.ClearSearch()
	page := c.Cases.LoadMerged(ctx, c.estados(), 0, c.pageSize)
	c.mu.Lock()
	c.nextPage = 1
	c.hasMore = page.HasMore
	c.lastSearch = ""
	c.mu.Unlock()
	c.fetchPreviews(page.Items)
	for _, caso := range c.Cases.SortedView() {
		c.notif.CaseUpdated(caso)
	}
}

// fetchPreviews параллельно подтягивает последнее сообщение и тип для
// пачки кейсов. Кейсы видны сразу, превью доезжает позже - частично
// заполненная строка списка это нормальное состояние, не ошибка.
func (c *Controller) fetchPreviews(casos []models.Case) {
	for i := range casos {
		caso := casos[i]
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.fetchPreview(caso)
		}()
	}
}

func (c *Controller) fetchPreview(caso models.Case) {
	if caso.TypeID != "" {
		if _, err := c.Types.Get(c.runCtx, caso.TypeID); err != nil {
			c.log.WithError(err).WithField("tipo", caso.TypeID).Debug("тип кейса не подтянулся")
		}
	}

	last, err := c.api.LastMessage(c.runCtx, caso.ID)
	if err != nil {
		c.log.WithError(err).WithField("caso", caso.ID).Debug("последнее сообщение не подтянулось")
		return
	}
	if last == nil {
		return
	}
	preview := last.Preview()
	at := last.SentAt
	if c.Cases.UpdateField(caso.ID, store.CasePatch{LastMessageText: &preview, LastActivityAt: &at}) {
		if updated, ok := c.Cases.Get(caso.ID); ok {
			c.notif.CaseUpdated(updated)
		}
	}
}
