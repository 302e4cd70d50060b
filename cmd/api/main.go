// Package main (in api-subfolder) provides launch of the whole application
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/archive"
	"github.com/UnendingLoop/PhotoAnimator/internal/config"
	"github.com/UnendingLoop/PhotoAnimator/internal/kafka"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/UnendingLoop/PhotoAnimator/internal/repository"
	"github.com/UnendingLoop/PhotoAnimator/internal/service"
	"github.com/UnendingLoop/PhotoAnimator/internal/session"
	"github.com/UnendingLoop/PhotoAnimator/internal/storage"
	"github.com/UnendingLoop/PhotoAnimator/internal/telegram"
	"github.com/UnendingLoop/PhotoAnimator/internal/transform"
	"github.com/UnendingLoop/PhotoAnimator/internal/transport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	wbfconfig "github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

const archiveQueueSize = 64

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := wbfconfig.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env file loaded (%v), using process environment", err)
	}

	cfg, err := config.Load(appConfig)
	if err != nil {
		log.Fatalf("Invalid configuration: %v\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// клиент сервиса генерации
	gemini, err := transform.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("Failed to init Gemini client: %v", err)
	}
	zlog.Logger.Info().Str("model", gemini.Model()).Msg("Gemini client ready")

	// архив попыток - опционально
	var (
		observer session.AttemptObserver
		history  *service.HistoryService
		infra    *archiveInfra
	)
	if cfg.ArchiveEnabled {
		infra, err = setupArchive(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to set up archive: %v", err)
		}
		observer = infra.worker
		history = service.NewHistoryService(infra.repo, infra.storage)
		go infra.worker.StartWorker(ctx)
	}

	// реестр сессий и уборщик простаивающих
	registry := session.NewRegistry(gemini, observer, cfg.SessionTTL)
	go janitorLoop(ctx, registry, cfg.JanitorPeriod)

	// создаем экземпляр сервиса
	var svc SessionAPIService = service.NewSessionService(registry)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewSessionHandler(svc, cfg.UploadMaxBytes)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/api/sessions", handlers.Create)                  // новая сессия
	engine.GET("/api/sessions/:id", handlers.Get)                  // состояние, ?wait=true - long-poll
	engine.DELETE("/api/sessions/:id", handlers.Delete)            // закрыть сессию
	engine.POST("/api/sessions/:id/image", handlers.Upload)        // загрузить/заменить фото
	engine.DELETE("/api/sessions/:id/image", handlers.RemoveImage) // убрать фото
	engine.POST("/api/sessions/:id/animate", handlers.Animate)     // запустить анимацию
	engine.GET("/api/sessions/:id/result", handlers.Result)        // готовая картинка
	if history != nil {
		var hs HistoryAPIService = history
		hh := transport.NewHistoryHandler(hs)
		engine.GET("/api/history", hh.GetAll)
		engine.GET("/api/history/:id", hh.Get)
		engine.GET("/api/history/:id/result", hh.LoadResult)
		engine.GET("/api/history/:id/thumbnail", hh.LoadThumbnail)
		engine.DELETE("/api/history/:id", hh.Delete)
	}
	engine.Static("/web", "./internal/web")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// телеграм-бот - опционально
	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Printf("Failed to start Telegram bot, continuing without it: %v", err)
		} else {
			zlog.Logger.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot authorized")
			go telegram.NewRouter(bot, registry, cfg.UploadMaxBytes).RunPolling(ctx)
		}
	}

	// ждем отмены контекста для запуска грейсфул закрытия
	<-ctx.Done()

	shutdown(srv, registry, gemini, infra)
	log.Println("Exiting app...")
}

func janitorLoop(ctx context.Context, reg *session.Registry, period time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Janitor loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := reg.EvictIdle(now); n > 0 {
				zlog.Logger.Info().Int("evicted", n).Int("alive", reg.Len()).Msg("Idle sessions evicted")
			}
		}
	}
}

type archiveInfra struct {
	db      *dbpg.DB
	pub     *wbfkafka.Producer
	repo    repository.AttemptRepo
	storage storageClient
	worker  *archive.Worker
}

func setupArchive(ctx context.Context, cfg *config.AppConfig) (*archiveInfra, error) {
	// подключиться к базе
	dbConn, err := repository.ConnectWithRetries(cfg.PostgresDSN, 5, 10*time.Second)
	if err != nil {
		return nil, err
	}
	// накатываем миграцию
	if err := repository.MigrateWithRetries(dbConn.Master, cfg.MigrationsPath, 10, 15*time.Second); err != nil {
		return nil, err
	}

	// подключиться к хранилищу
	strg, err := storage.NewImgStorage(ctx, cfg, 10*time.Second)
	if err != nil {
		return nil, err
	}
	// создаем экземпляр репо
	repo := repository.NewPostgresAttemptRepo(dbConn)

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, cfg.KafkaBroker, 5*time.Second); err != nil {
		return nil, err
	}
	if err := kafka.InitKafkaTopics(ctx, cfg.KafkaBroker, 10*time.Second, cfg.KafkaTopic); err != nil {
		return nil, err
	}
	// подключиться к кафке как продюсер
	pub := wbfkafka.NewProducer([]string{cfg.KafkaBroker}, cfg.KafkaTopic)

	return &archiveInfra{
		db:      dbConn,
		pub:     pub,
		repo:    repo,
		storage: strg,
		worker:  archive.NewWorker(strg, repo, pub, archiveQueueSize),
	}, nil
}

func shutdown(srv *http.Server, reg *session.Registry, gemini *transform.GeminiClient, infra *archiveInfra) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Println("Failed to shut down HTTP server:", err)
	}

	// останавливаем акторы сессий
	reg.Close()
	log.Println("Sessions closed.")

	if err := gemini.Close(); err != nil {
		log.Println("Failed to close Gemini client:", err)
	}

	if infra == nil {
		return
	}

	// Closing Kafka connection:
	if err := infra.pub.Close(); err != nil {
		log.Println("Failed to close Kafka-producer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := infra.db.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
