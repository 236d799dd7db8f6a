package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kimmigration/internal/app"
	"kimmigration/internal/config"
	"kimmigration/internal/identity"
	"kimmigration/internal/notify"
	"kimmigration/internal/server"
	"kimmigration/internal/util"
	"kimmigration/pkg/ai"
	"kimmigration/pkg/auth"
	"kimmigration/pkg/storage"
	"kimmigration/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	adminHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		util.Fatal("failed to hash admin password", "err", err)
	}
	bootstrap := store.Bootstrap{
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: adminHash,
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		gs, err := store.NewGormStore(cfg.DatabaseURL, bootstrap)
		if err != nil {
			util.Fatal("failed to init database store", "err", err)
		}
		st = gs
	} else {
		slog.Warn("databaseURL not set, using in-memory store")
		st = store.NewMemoryStore(bootstrap)
	}

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	var sessions store.SessionStore
	var translationCache ai.TranslationCache
	var broadcaster notify.Broadcaster
	if cfg.RedisAddr != "" {
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
		translationCache = ai.NewRedisTranslationCache(cfg.RedisAddr, cfg.RedisPassword, 24*time.Hour)
		broadcaster = notify.NewRedisBroadcaster(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		slog.Warn("redisAddr not set, using in-memory sessions and caches")
		sessions = store.NewMemorySessionStore(sessionTTL)
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		ms, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			util.Fatal("failed to init object store", "err", err)
		}
		objects = ms
	} else {
		slog.Warn("minioEndpoint not set, attachments are stored in memory")
	}

	var generator ai.TextGenerator
	var translator *ai.Translator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			util.Fatal("failed to init gemini client", "err", err)
		}
		generator = gemini
		translator = ai.NewTranslator(gemini, translationCache)
	} else {
		slog.Warn("geminiAPIKey not set, chat falls back to the canned reply and translation is disabled")
	}

	var events notify.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			util.Fatal("failed to init amqp publisher", "err", err)
		}
		defer pub.Close()
		events = pub
	}

	var verifier *identity.Verifier
	if cfg.GoogleClientID != "" {
		verifier, err = identity.NewVerifier(identity.Config{
			ClientID:   cfg.GoogleClientID,
			HTTPClient: &http.Client{Timeout: 5 * time.Second},
		})
		if err != nil {
			util.Fatal("failed to init identity verifier", "err", err)
		}
	} else {
		slog.Warn("googleClientID not set, Google sign-in is disabled")
	}

	appCore, err := app.New(app.Config{
		Store:       st,
		Sessions:    sessions,
		Objects:     objects,
		Generator:   generator,
		Translator:  translator,
		Broadcaster: broadcaster,
		Events:      events,
		Identity:    verifier,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{App: appCore})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if broadcaster != nil {
		group.Go(func() error {
			updates, err := broadcaster.SubscribeContentUpdated(ctx)
			if err != nil {
				return fmt.Errorf("subscribe content-updated: %w", err)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-updates:
					if !ok {
						return nil
					}
					slog.Info("content updated, cached navigation should refresh")
				}
			}
		})
	}
	if err := group.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
