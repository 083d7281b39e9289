package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/internal/util"
	bboltstorage "github.com/tebraouisamy/presence-app/storage/bbolt"
	"github.com/tebraouisamy/presence-app/storage/memory"
	"github.com/tebraouisamy/presence-app/storage/postgres"
	"github.com/tebraouisamy/presence-app/token"
)

// tokenKeyEnv holds the deployment's hex-encoded master secret. The actual
// MAC key is HKDF-derived from it so the raw secret never signs anything.
const tokenKeyEnv = "PRESENCE_TOKEN_KEY"

var tokenKeyInfo = []byte("presence-app token mac v1")

// openStore opens the attendance store selected by backend: "memory" for a
// process-lifetime store, "bbolt" backed by a file under dataDir, or
// "postgres" with the given DSN. The returned func releases the store.
func openStore(ctx context.Context, backend, dataDir, dsn string) (attendance.Store, func(), error) {
	switch backend {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "bbolt":
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		store, err := bboltstorage.NewStoreFromFile(filepath.Join(dataDir, "attendance.db"), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("opening attendance store: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		if dsn == "" {
			return nil, nil, fmt.Errorf("postgres backend requires --postgres-dsn or DATABASE_URL")
		}
		store, err := postgres.NewStoreFromDSN(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening attendance store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (want memory, bbolt or postgres)", backend)
	}
}

// newCodec builds the token codec from the environment's master secret.
// Without one, an ephemeral key is generated: tokens then stop verifying
// across restarts, which is fine for demos and wrong for production.
func newCodec() (*token.Codec, error) {
	var master []byte
	if hexKey := os.Getenv(tokenKeyEnv); hexKey != "" {
		var err error
		master, err = util.HexDecode(hexKey)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", tokenKeyEnv, err)
		}
	} else {
		var err error
		master, err = util.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "warning: %s not set; using an ephemeral signing key, tokens will not survive a restart\n", tokenKeyEnv)
	}
	defer util.WipeBytes(master)

	key, err := util.HKDF(master, nil, tokenKeyInfo)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)
	return token.NewCodec(key)
}
