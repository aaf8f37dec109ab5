package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/sticky/pkg/adapters/file"
	"github.com/aretw0/sticky/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/sticky/pkg/adapters/redis"
	"github.com/aretw0/sticky/pkg/persistence/middleware"
	"github.com/aretw0/sticky/pkg/ports"
	"github.com/aretw0/sticky/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envEncryptionKey     = "STICKY_ENCRYPTION_KEY"
	envEncryptionOldKeys = "STICKY_ENCRYPTION_FALLBACK_KEYS"
)

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("store", "file", "Session store backend (file, redis, memory)")
	fs.String("store-path", ".sticky/sessions", "Directory of the file store")
	fs.String("redis-addr", "localhost:6379", "Address of the redis store")
	fs.StringSlice("mask", nil, "Regex of param keys to mask before persisting (repeatable)")
}

// openSessions builds a session manager from the store flags. Snapshots are
// encrypted when STICKY_ENCRYPTION_KEY holds a base64 encoded 32-byte key.
// The returned close function releases the backend.
func openSessions(cmd *cobra.Command, logger *slog.Logger) (*session.Manager, func() error, error) {
	backend, _ := cmd.Flags().GetString("store")
	closeFn := func() error { return nil }

	var store ports.SnapshotStore
	opts := []session.Option{session.WithLogger(logger)}

	switch backend {
	case "file":
		path, _ := cmd.Flags().GetString("store-path")
		store = file.NewStore(path)
	case "memory":
		store = memory.NewStore()
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		client := redis.NewClient(&redis.Options{Addr: addr})
		store = redisAdapter.NewFromClient(client)
		opts = append(opts, session.WithLocker(redisAdapter.NewLocker(client, "sticky:")))
		closeFn = client.Close
	default:
		return nil, nil, fmt.Errorf("unknown store %q: expected file, redis or memory", backend)
	}

	var mws []middleware.Middleware
	if patterns, _ := cmd.Flags().GetStringSlice("mask"); len(patterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(patterns))
	}
	enc, err := encryptionFromEnv()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if enc != nil {
		mws = append(mws, enc)
	}

	logger.Debug("session store ready", "backend", backend, "middlewares", len(mws))
	return session.NewManager(middleware.Chain(store, mws...), opts...), closeFn, nil
}

func encryptionFromEnv() (middleware.Middleware, error) {
	raw := os.Getenv(envEncryptionKey)
	if raw == "" {
		return nil, nil
	}
	active, err := decodeKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envEncryptionKey, err)
	}

	var fallback [][]byte
	if old := os.Getenv(envEncryptionOldKeys); old != "" {
		for _, k := range strings.Split(old, ",") {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", envEncryptionOldKeys, err)
			}
			fallback = append(fallback, key)
		}
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	}), nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
