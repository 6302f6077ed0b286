package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/models"
)

// AutoConnectionSignUp returns a sign-up policy that mints a local user for
// any provider identity seen for the first time. The username is derived from
// the provider account so the policy stays deterministic per identity.
func AutoConnectionSignUp(store *Store) connect.ConnectionSignUp {
	return func(ctx context.Context, conn connect.Connection) (string, error) {
		key := conn.Key()
		user := &models.User{
			ID:          uuid.New().String(),
			Username:    fmt.Sprintf("%s:%s", key.ProviderID, key.ProviderUserID),
			DisplayName: conn.DisplayName(),
			ImageURL:    conn.ImageURL(),
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return "", err
		}
		return user.ID, nil
	}
}
