package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"askdocs/internal/app"
	"askdocs/internal/cache"
	"askdocs/internal/captions"
	"askdocs/internal/config"
	"askdocs/internal/invoice"
	"askdocs/internal/model"
	"askdocs/internal/notify"
	mysqlClient "askdocs/internal/platform/mysql"
	qdrantPlatform "askdocs/internal/platform/qdrant"
	rabbitmqClient "askdocs/internal/platform/rabbitmq"
	redisClient "askdocs/internal/platform/redis"
	"askdocs/internal/rag"
	"askdocs/internal/repository"
	"askdocs/internal/tutor"
	qdrantstore "askdocs/internal/vectorstore/qdrant"
	"askdocs/internal/worker"
)

type App struct {
	Config     *config.Config
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	Qdrant     *grpc.ClientConn
	TurnWorker *worker.TurnPersistWorker

	Models    *Models
	Sessions  *app.SessionStore
	Documents *app.DocumentService
	Audio     *app.AudioService
	Invoices  *app.InvoiceService
	Tutor     *app.TutorService
	Notifier  *notify.Webhook

	StartedAt time.Time
}

// New loads and validates the configuration, then connects only the
// dependencies that are enabled. Configuration problems fail before any
// network activity.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	models, err := NewModels(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Models: models, StartedAt: time.Now()}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close()
		}
	}()

	if cfg.MySQL.Enabled {
		a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(),
			&model.Session{},
			&model.Document{},
			&model.DocumentSegment{},
			&model.TutorTurn{},
			&model.SessionRecord{},
		)
		if err != nil {
			return nil, err
		}
	}

	memoTTL := time.Duration(cfg.Redis.MemoTTLSeconds) * time.Second
	var memo cache.Memo = cache.NewLocalMemo(memoTTL)
	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		memo = cache.NewRedisMemo(a.Redis, memoTTL)
	}

	var publisher app.TurnPublisher
	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TurnPersistQueue)
		if err != nil {
			return nil, err
		}
		turnRepo := repository.NewTutorTurnRepository(a.MySQL)
		a.TurnWorker = worker.NewTurnPersistWorker(a.MQConn, turnRepo, cfg.RabbitMQ.TurnPersistQueue)
		if err := a.TurnWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start turn worker failed: %w", err)
		}
		publisher = rabbitmqClient.NewTurnPublisher(a.MQConn, cfg.RabbitMQ.TurnPersistQueue)
	}

	docOpts := []app.DocumentOption{app.WithIndexMemo(memo, models.Tag)}
	if cfg.Retrieval.Backend == config.BackendQdrant {
		a.Qdrant, err = qdrantPlatform.New(ctx, cfg.Qdrant.Addr)
		if err != nil {
			return nil, err
		}
		collections := qdrantclient.NewCollectionsClient(a.Qdrant)
		points := qdrantclient.NewPointsClient(a.Qdrant)
		prefix := cfg.Qdrant.CollectionPrefix
		docOpts = append(docOpts, app.WithStoreFactory(func(sessionID string) rag.VectorStore {
			return qdrantstore.New(collections, points, prefix+"_"+sessionID)
		}))
	}

	var records app.RecordStore
	if a.MySQL != nil {
		docOpts = append(docOpts, app.WithRecorder(app.NewSQLDocumentRecorder(
			repository.NewSessionRepository(a.MySQL),
			repository.NewDocumentRepository(a.MySQL),
		)))
		records = repository.NewSessionRecordRepository(a.MySQL)
	}

	a.Sessions = app.NewSessionStore(
		time.Duration(cfg.App.SessionTTLMin)*time.Minute,
		cfg.Session.TokenSecret,
		time.Duration(cfg.Session.TokenExpireMinute)*time.Minute,
	)
	a.Documents = app.NewDocumentService(models.Embedder, models.Generator, a.Sessions, cfg.ServerChunking(), cfg.Retrieval.TopK, docOpts...)
	a.Audio = app.NewAudioService(models.Transcriber, models.Speech, a.Documents, a.Sessions, cfg.AudioChunking())

	extractor, err := invoice.NewExtractor(models.Embedder, models.Generator,
		invoice.WithMemo(memo, models.Tag),
		invoice.WithChunking(cfg.InvoiceChunking()),
	)
	if err != nil {
		return nil, fmt.Errorf("create invoice extractor failed: %w", err)
	}
	a.Invoices = app.NewInvoiceService(extractor, models.Embedder, models.Generator, a.Sessions)

	a.Tutor = app.NewTutorService(
		captions.NewYouTubeClient(cfg.LLMTimeout()),
		tutor.NewService(models.Generator),
		a.Sessions,
		publisher,
		records,
		cfg.Tutor.SessionsDir,
		cfg.Captions.MaxChars,
	)
	a.Notifier = notify.NewWebhook(cfg.Notify.WebhookURL)

	log.Printf("bootstrap: provider=%s backend=%s mysql=%t redis=%t rabbitmq=%t",
		cfg.LLM.Provider, cfg.Retrieval.Backend, cfg.MySQL.Enabled, cfg.Redis.Enabled, cfg.RabbitMQ.Enabled)
	ready = true
	return a, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Qdrant != nil {
		if err := a.Qdrant.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
