package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/crypto"
	"github.com/go-socialgate/socialgate/internal/store"
)

// initializeDatabase creates and initializes the database connection
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("[Bootstrap] Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}

// initializeEncryptor selects the token encryptor. An empty password stores
// provider tokens in plaintext.
func initializeEncryptor(cfg *config.Config) (crypto.TextEncryptor, error) {
	if cfg.EncryptPassword == "" {
		log.Println("[Bootstrap] Token encryption disabled; provider tokens stored in plaintext")
		return crypto.NoOpEncryptor{}, nil
	}

	encryptor, err := crypto.NewAESEncryptor(cfg.EncryptPassword, cfg.EncryptSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryptor: %w", err)
	}
	log.Println("[Bootstrap] Token encryption enabled (AES-256-GCM)")
	return encryptor, nil
}
