package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/TrAlSe1812/survey-gym42/app"
	"github.com/TrAlSe1812/survey-gym42/auth"
	"github.com/TrAlSe1812/survey-gym42/authoring"
	"github.com/TrAlSe1812/survey-gym42/config"
	"github.com/TrAlSe1812/survey-gym42/database"
	"github.com/TrAlSe1812/survey-gym42/httpx"
	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/routes"
	"github.com/TrAlSe1812/survey-gym42/store"
	"github.com/TrAlSe1812/survey-gym42/submission"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	kv, closeKV, err := openKV(ctx, cfg, db)
	if err != nil {
		log.Fatal("main.kv.open:", err)
	}
	defer closeKV()

	st, err := store.Open(ctx, kv)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}

	users := database.NewUsers(db)
	tokens := database.NewTokens(db)
	if cfg.AdminLogin != "" {
		admin := auth.Identity{Login: cfg.AdminLogin, FullName: auth.AdminTariff, Role: auth.RoleAdmin}
		if err := users.SetPassword(ctx, admin, cfg.AdminPass); err != nil {
			log.Fatal("main.admin.seed:", err)
		}
	}
	go pruneTokens(ctx, tokens)

	bearerServer := httpx.NewBearerServer(cfg, httpx.CredentialsVerifier(authenticator(cfg, users), users, tokens))

	app := app.App{
		BearerServer: bearerServer,
		Config:       cfg,
		Store:        st,
		Authoring:    authoring.NewService(st),
		Submissions:  submission.NewService(st, nil),
		Users:        users,
		Tokens:       tokens,
	}

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// openKV picks the backend the survey and response lists live in.
func openKV(ctx context.Context, cfg config.Config, db *sql.DB) (store.KV, func(), error) {
	switch cfg.Storage {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		log.Info("Surveys stored in redis at " + cfg.RedisAddr)
		return database.NewRedisKV(rdb, cfg.RedisPrefix), func() { rdb.Close() }, nil

	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("Surveys stored in mongodb database " + cfg.MongoDB)
		return database.NewMongoKV(client.Database(cfg.MongoDB)), func() { client.Disconnect(context.Background()) }, nil

	case config.StorageMemory:
		log.Warn("Surveys are kept in memory and lost on restart")
		return store.NewMemoryKV(), func() {}, nil
	}
	return database.NewSQLiteKV(db), func() {}, nil
}

// authenticator tries local accounts first, then the school directory,
// then demo identities when enabled.
func authenticator(cfg config.Config, users *database.Users) auth.Authenticator {
	chain := auth.Chain{auth.Local{Users: users}}
	if cfg.AuthURL != "" {
		chain = append(chain, &auth.Remote{BaseURL: cfg.AuthURL, ProxyURL: cfg.AuthProxy})
	}
	if cfg.DemoAuth {
		log.Warn("Demo logins enabled: any login is accepted")
		chain = append(chain, auth.Demo{})
	}
	return chain
}

func pruneTokens(ctx context.Context, tokens *database.Tokens) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := tokens.Prune(ctx, time.Now())
		if err != nil {
			log.Errorf("db.prune_tokens: %s", err)
		} else if n > 0 {
			log.Debugf("db.prune_tokens: removed %d", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
