// ABOUTME: End-to-end encryption for the Matrix bridge using mautrix cryptohelper
// ABOUTME: Keys live in a per-user SQLite database that is reset on device change

package builtins

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/crypto/cryptohelper"
)

// setupMatrixCrypto attaches an initialized crypto helper to client. When
// recoveryKey is non-empty the device is also verified for cross-signing;
// a failed verification is logged and encryption stays on.
func setupMatrixCrypto(ctx context.Context, client *mautrix.Client, recoveryKey, dataDir string, logger *slog.Logger) (*cryptohelper.CryptoHelper, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating crypto directory: %w", err)
	}

	if client.DeviceID == "" {
		resp, err := client.Whoami(ctx)
		if err != nil {
			return nil, fmt.Errorf("looking up device id: %w", err)
		}
		client.DeviceID = resp.DeviceID
	}

	userID := client.UserID.String()
	dbPath := filepath.Join(dataDir, fmt.Sprintf("matrix-crypto-%s.db", slugify(userID)))
	logger.Info("setting up encryption", "db", dbPath, "device_id", client.DeviceID.String())

	if stale, err := deviceChanged(dbPath, client.DeviceID.String()); err != nil {
		logger.Debug("could not check device id", "error", err)
	} else if stale {
		logger.Warn("device id changed, resetting crypto database")
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("removing old crypto database: %w", err)
			}
		}
	}

	helper, err := cryptohelper.NewCryptoHelper(client, storeKey(userID), dbPath)
	if err != nil {
		return nil, fmt.Errorf("creating crypto helper: %w", err)
	}
	if err := helper.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing crypto helper: %w", err)
	}
	client.Crypto = helper

	if recoveryKey == "" {
		logger.Info("encryption initialized (no recovery key - cross-signing disabled)")
		return helper, nil
	}

	machine := helper.Machine()
	if machine == nil {
		logger.Warn("crypto machine not initialized, skipping recovery key verification")
		return helper, nil
	}
	if err := machine.VerifyWithRecoveryKey(ctx, recoveryKey); err != nil {
		logger.Warn("failed to verify with recovery key", "error", err)
	} else {
		logger.Info("device verified with recovery key")
	}
	return helper, nil
}

// deviceChanged reports whether the crypto database at dbPath belongs to a
// different device. A missing database or account is not a change.
func deviceChanged(dbPath, deviceID string) (bool, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var stored string
	err = db.QueryRow("SELECT device_id FROM crypto_account LIMIT 1").Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored != deviceID, nil
}

// slugify makes a Matrix user id safe for a file name:
// @swarm:matrix.org -> swarm_matrix.org
func slugify(userID string) string {
	if len(userID) > 0 && userID[0] == '@' {
		userID = userID[1:]
	}
	out := make([]byte, 0, len(userID))
	for i := 0; i < len(userID); i++ {
		c := userID[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			out = append(out, c)
		case c == ':':
			out = append(out, '_')
		}
	}
	return string(out)
}

// storeKey derives the pickle key for a user's crypto store.
func storeKey(userID string) []byte {
	h := sha256.Sum256([]byte("coven-swarm-crypto:" + userID))
	return h[:]
}
