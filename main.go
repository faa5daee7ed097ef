package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/theleywin/talentnest-connections/src/emails"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/routes"
	"github.com/theleywin/talentnest-connections/src/services"
	"github.com/theleywin/talentnest-connections/src/store"
)

func main() {
	cfg := lib.Load()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	var (
		st   store.Store
		ping func(ctx context.Context) error
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Println("Using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	default:
		client, db, err := lib.ConnectDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()

		mongoStore := store.NewMongoStore(db, cfg.MongoTransactions)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		st = mongoStore
		ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	}

	var publisher services.Publisher
	if cfg.RedisURL != "" {
		rdb, err := lib.InitRedis(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: realtime events disabled: %v", err)
		} else {
			defer rdb.Close()
			publisher = services.NewRedisPublisher(rdb)
		}
	}

	var mailer emails.Sender = emails.LogSender{}
	if cfg.SMTP.Host != "" {
		mailer = emails.NewSMTPSender(emails.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	dispatcher := services.NewDispatcher(st, mailer, publisher, services.LogSink{Metrics: metrics}, services.DispatcherConfig{
		ClientURL: cfg.ClientURL,
		Timeout:   cfg.SideEffectTimeout,
	})

	app := routes.NewApp(routes.Deps{
		Store:         st,
		Connections:   services.NewConnectionService(st, dispatcher, metrics, services.Options{StrictSend: cfg.StrictSend}),
		Notifications: services.NewNotificationService(st),
		Users:         services.NewUserService(st),
		JWTSecret:     cfg.JWTSecret,
		AllowOrigins:  cfg.ClientURL,
		Development:   cfg.IsDevelopment(),
		Gatherer:      reg,
		Ping:          ping,
	})

	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// let accepted requests finish their notifications and emails
	dispatcher.Wait()
	log.Println("Server exited")
}
