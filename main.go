package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sacagente/backend"
	"sacagente/config"
	"sacagente/handlers"
	"sacagente/middleware"
	"sacagente/session"
	"sacagente/syncer"
	"sacagente/transport"
	"sacagente/websocket"
)

// stompTransport адаптирует конкретный STOMP-клиент под интерфейс контроллера
type stompTransport struct {
	*transport.Client
}

func (t stompTransport) Subscribe(topic string) syncer.Subscription {
	return t.Client.Subscribe(topic)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("конфигурация не загрузилась: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	middleware.SetJWTKey(cfg.JWTSecret)

	ctx := context.Background()

	// Сессионное хранилище: Redis, если сконфигурирован, иначе память
	var sess session.Store
	if cfg.RedisAddr != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AsesorID)
		if err != nil {
			logrus.Fatalf("Redis недоступен: %v", err)
		}
		defer rs.Close()
		sess = rs
	} else {
		logrus.Warn("REDIS_ADDR не задан, сессия живёт в памяти процесса")
		sess = session.NewMemoryStore(cfg.AsesorID)
	}

	api := backend.New(cfg.BackendURL)
	stomp := stompTransport{transport.NewClient(cfg.BrokerURL)}

	// WebSocket хаб для фронтенда
	hub := websocket.NewHub()
	go hub.Run()
	notifier := websocket.NewHubNotifier(hub)

	// Контроллер на каждую вкладку; транспорт общий
	controllers := map[string]*syncer.Controller{}
	for _, vista := range []string{syncer.VistaEnProceso, syncer.VistaCerrados} {
		ctl := syncer.New(syncer.Config{
			API:       api,
			Transport: stomp,
			Session:   sess,
			Notifier:  notifier,
			AsesorID:  cfg.AsesorID,
			Vista:     vista,
			PageSize:  cfg.PageSize,
		})
		ctl.Start(ctx)
		defer ctl.Stop()
		controllers[vista] = ctl
	}
	defer stomp.Disconnect()

	h := handlers.New(controllers, api)

	r := gin.Default()
	r.Use(middleware.Logger())

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	root := r.Group("/api")
	{
		root.POST("/auth/login", handlers.Login)

		authorized := root.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			casos := authorized.Group("/casos")
			{
				casos.GET("", h.GetCasos)
				casos.POST("/cargarMas", h.LoadMoreCasos)
				casos.GET("/buscar", h.SearchCasos)
				casos.POST("/crear", h.CreateCase)
				casos.POST("/:id/abrirChat", h.OpenChat)
				casos.POST("/cerrarChat", h.CloseChat)
				casos.PUT("/:id/atender", h.ClaimCase)
				casos.PUT("/:id/cerrar", h.CloseCase)
				casos.PUT("/:id/estado", h.SetEstado)
			}

			mensajes := authorized.Group("/mensajes")
			{
				mensajes.GET("", h.GetMensajes)
				mensajes.POST("/cargarAnteriores", h.LoadOlderMensajes)
				mensajes.POST("/enviar", h.SendText)
				mensajes.POST("/enviarMultimedia", h.SendMedia)
				mensajes.GET("/multimedia/:id", h.Media)
			}

			tipos := authorized.Group("/tipos")
			{
				tipos.GET("", h.GetTipos)
				tipos.GET("/:id", h.GetTipo)
			}
		}
	}

	// WebSocket эндпоинт; токен приходит query-параметром, как принято
	// у браузерных клиентов
	r.GET("/ws", func(c *gin.Context) {
		claims, err := middleware.ValidateToken(c.Query("token"))
		if err != nil {
			c.AbortWithStatus(401)
			return
		}
		websocket.ServeWs(hub, c.Writer, c.Request, claims.AsesorID)
	})

	logrus.WithField("port", cfg.Port).Info("шлюз запущен")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("сервер не запустился: %v", err)
	}
}
