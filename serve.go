package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/epiwordle/assets"
	"github.com/robalobadob/epiwordle/internal/cache"
	"github.com/robalobadob/epiwordle/internal/chat"
	"github.com/robalobadob/epiwordle/internal/config"
	"github.com/robalobadob/epiwordle/internal/db"
	"github.com/robalobadob/epiwordle/internal/game"
	"github.com/robalobadob/epiwordle/internal/httpserver"
	"github.com/robalobadob/epiwordle/internal/metrics"
	"github.com/robalobadob/epiwordle/internal/store"
	"github.com/robalobadob/epiwordle/internal/user"
	"github.com/robalobadob/epiwordle/internal/words"
)

const welcomeMessage = "Welcome to EpiWordle! Be kind and have fun."

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		log.Warn().Msg("using the development JWT secret; set WORDLE_AUTH_JWTSECRET in production")
	}

	conn, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	dict := words.NewSQLDictionary(conn)
	if err := seedWords(ctx, dict, cfg.Words.File); err != nil {
		return err
	}

	m := metrics.New(cfg.Metrics.Enabled, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	leaderboardCache := cache.WithObserver(
		cache.New(cfg.Cache.Enabled, cfg.Cache.SizeMB, cfg.Cache.LeaderboardTTL), m)

	users := user.NewService(
		user.NewSQLite(conn),
		user.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		user.WithCache(leaderboardCache),
	)

	chatStore, closeChat, err := newChatStore(ctx, cfg.Chat)
	if err != nil {
		return err
	}
	defer closeChat()
	chats := chat.NewService(chatStore, cfg.Chat.MaxLength)
	if err := chats.PostSystem(ctx, welcomeMessage); err != nil {
		log.Warn().Err(err).Msg("post welcome message")
	}

	games := game.NewManager(dict, store.NewSQLite(conn),
		game.WithLimits(cfg.Game.MaxAttempts, cfg.Game.WordLength),
		game.WithObserver(m),
	)

	srv := httpserver.New(cfg, httpserver.Deps{
		Games:   games,
		Dict:    dict,
		Users:   users,
		Chat:    chats,
		Metrics: m,
	})
	return srv.Run(ctx)
}

// openDatabase opens and migrates the SQLite file named by storage.path.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", cfg.Storage.Path).Msg("database ready")
	return conn, nil
}

// seedWords fills an empty dictionary from file, or from the embedded list
// when file is empty. A dictionary that already has words is left alone.
func seedWords(ctx context.Context, dict *words.SQLDictionary, file string) error {
	_, total, err := dict.Stats(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		log.Debug().Int("words", total).Msg("dictionary already seeded")
		return nil
	}

	var r io.ReadCloser
	if file != "" {
		r, err = os.Open(file)
	} else {
		r, err = assets.DefaultWords()
	}
	if err != nil {
		return fmt.Errorf("open word list: %w", err)
	}
	defer r.Close()

	n, rejected, err := importWords(ctx, dict, r, true)
	if err != nil {
		return err
	}
	log.Info().Int("imported", n).Int("rejected", rejected).Msg("dictionary seeded")
	return nil
}

func importWords(ctx context.Context, dict *words.SQLDictionary, r io.Reader, active bool) (n, rejected int, err error) {
	list, rejected, err := words.ReadList(r, words.Length)
	if err != nil {
		return 0, rejected, fmt.Errorf("read word list: %w", err)
	}
	n, err = dict.Import(ctx, list, active)
	if err != nil {
		return 0, rejected, err
	}
	return n, rejected, nil
}

// newChatStore builds the configured chat backend and its cleanup func.
func newChatStore(ctx context.Context, cfg config.ChatConfig) (chat.Store, func(), error) {
	if cfg.Driver != "redis" {
		return chat.NewMemoryStore(cfg.MaxMessages), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("chat store: redis")
	return chat.NewRedisStore(rdb, cfg.RedisKey, cfg.MaxMessages), func() { _ = rdb.Close() }, nil
}
