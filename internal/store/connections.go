package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/crypto"
	"github.com/go-socialgate/socialgate/internal/models"
)

// ConnectionsRepository implements connect.UsersConnectionRepository over the
// user_connections table. Token columns pass through the configured encryptor
// on every read and write.
type ConnectionsRepository struct {
	store     *Store
	registry  *connect.Registry
	encryptor crypto.TextEncryptor
	signUp    connect.ConnectionSignUp
}

var _ connect.UsersConnectionRepository = (*ConnectionsRepository)(nil)

// NewConnectionsRepository wires the cross-user repository. A nil encryptor
// stores tokens in plaintext; signUp may be nil to disable implicit sign-up.
func NewConnectionsRepository(
	store *Store,
	registry *connect.Registry,
	encryptor crypto.TextEncryptor,
	signUp connect.ConnectionSignUp,
) *ConnectionsRepository {
	if encryptor == nil {
		encryptor = crypto.NoOpEncryptor{}
	}
	return &ConnectionsRepository{
		store:     store,
		registry:  registry,
		encryptor: encryptor,
		signUp:    signUp,
	}
}

// FindUserIDsWithConnection returns the local user ids holding the given
// connection. When none exist and a sign-up policy is configured, the policy
// runs; a non-empty user id from it gets the connection persisted and is
// returned alone.
func (r *ConnectionsRepository) FindUserIDsWithConnection(
	ctx context.Context,
	conn connect.Connection,
) ([]string, error) {
	key := conn.Key()
	var userIDs []string
	err := r.store.db.WithContext(ctx).
		Model(&models.UserConnection{}).
		Where("provider_id = ? AND provider_user_id = ?", key.ProviderID, key.ProviderUserID).
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connected users: %w", err)
	}
	if len(userIDs) > 0 || r.signUp == nil {
		return userIDs, nil
	}

	newUserID, err := r.signUp(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("sign-up policy failed: %w", err)
	}
	if newUserID == "" {
		return []string{}, nil
	}
	if err := r.CreateConnectionRepository(newUserID).AddConnection(ctx, conn); err != nil {
		return nil, err
	}
	return []string{newUserID}, nil
}

func (r *ConnectionsRepository) FindUserIDsConnectedTo(
	ctx context.Context,
	providerID string,
	providerUserIDs []string,
) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if len(providerUserIDs) == 0 {
		return result, nil
	}
	var userIDs []string
	err := r.store.db.WithContext(ctx).
		Model(&models.UserConnection{}).
		Where("provider_id = ? AND provider_user_id IN ?", providerID, providerUserIDs).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connected users: %w", err)
	}
	for _, id := range userIDs {
		result[id] = struct{}{}
	}
	return result, nil
}

// CreateConnectionRepository binds the per-user view.
func (r *ConnectionsRepository) CreateConnectionRepository(
	localUserID string,
) connect.ConnectionRepository {
	return &userConnections{parent: r, userID: localUserID}
}

// userConnections is the per-user view over one local user's rows.
type userConnections struct {
	parent *ConnectionsRepository
	userID string
}

var _ connect.ConnectionRepository = (*userConnections)(nil)

func (u *userConnections) FindAllConnections(
	ctx context.Context,
) (map[string][]connect.Connection, error) {
	var records []models.UserConnection
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ?", u.userID).
		Order("provider_id, rank").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	// Seed with every registered provider so callers see providers the user
	// has not connected to yet.
	result := make(map[string][]connect.Connection)
	for _, providerID := range u.parent.registry.ProviderIDs() {
		result[providerID] = []connect.Connection{}
	}
	for i := range records {
		conn, err := u.parent.toConnection(&records[i])
		if err != nil {
			return nil, err
		}
		result[records[i].ProviderID] = append(result[records[i].ProviderID], conn)
	}
	return result, nil
}

func (u *userConnections) FindConnections(
	ctx context.Context,
	providerID string,
) ([]connect.Connection, error) {
	var records []models.UserConnection
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", u.userID, providerID).
		Order("rank").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	conns := make([]connect.Connection, 0, len(records))
	for i := range records {
		conn, err := u.parent.toConnection(&records[i])
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func (u *userConnections) FindConnectionsToUsers(
	ctx context.Context,
	providerUserIDs map[string][]string,
) (map[string][]connect.Connection, error) {
	if len(providerUserIDs) == 0 {
		return nil, fmt.Errorf("%w: no provider users given", connect.ErrInvalidArgument)
	}

	result := make(map[string][]connect.Connection, len(providerUserIDs))
	for providerID, ids := range providerUserIDs {
		var records []models.UserConnection
		err := u.parent.store.db.WithContext(ctx).
			Where("user_id = ? AND provider_id = ? AND provider_user_id IN ?",
				u.userID, providerID, ids).
			Find(&records).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query connections: %w", err)
		}

		byProviderUser := make(map[string]connect.Connection, len(records))
		for i := range records {
			conn, err := u.parent.toConnection(&records[i])
			if err != nil {
				return nil, err
			}
			byProviderUser[records[i].ProviderUserID] = conn
		}

		// Positions align with the requested ids; misses stay nil.
		aligned := make([]connect.Connection, len(ids))
		for i, id := range ids {
			aligned[i] = byProviderUser[id]
		}
		result[providerID] = aligned
	}
	return result, nil
}

func (u *userConnections) GetConnection(
	ctx context.Context,
	key connect.ConnectionKey,
) (connect.Connection, error) {
	var record models.UserConnection
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ? AND provider_user_id = ?",
			u.userID, key.ProviderID, key.ProviderUserID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s",
				connect.ErrNoSuchConnection, key.ProviderID, key.ProviderUserID)
		}
		return nil, fmt.Errorf("failed to query connection: %w", err)
	}
	return u.parent.toConnection(&record)
}

func (u *userConnections) GetPrimaryConnection(
	ctx context.Context,
	providerID string,
) (connect.Connection, error) {
	conn, err := u.FindPrimaryConnection(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: user %s has no %s connection",
			connect.ErrNotConnected, u.userID, providerID)
	}
	return conn, nil
}

func (u *userConnections) FindPrimaryConnection(
	ctx context.Context,
	providerID string,
) (connect.Connection, error) {
	var record models.UserConnection
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", u.userID, providerID).
		Order("rank").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query primary connection: %w", err)
	}
	return u.parent.toConnection(&record)
}

// AddConnection inserts the connection at rank max+1. The rank read and the
// insert share one transaction so concurrent adds for the same user and
// provider serialize on the database.
func (u *userConnections) AddConnection(ctx context.Context, conn connect.Connection) error {
	record, err := u.parent.toRecord(u.userID, conn.CreateData())
	if err != nil {
		return err
	}
	err = u.parent.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxRank int
		err := tx.Model(&models.UserConnection{}).
			Where("user_id = ? AND provider_id = ?", u.userID, record.ProviderID).
			Select("COALESCE(MAX(rank), 0)").
			Scan(&maxRank).Error
		if err != nil {
			return err
		}
		record.Rank = maxRank + 1
		return tx.Create(record).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s/%s already connected",
				connect.ErrDuplicateConnection, record.ProviderID, record.ProviderUserID)
		}
		return fmt.Errorf("failed to add connection: %w", err)
	}
	return nil
}

// UpdateConnection overwrites profile and token columns for the connection's
// key, leaving rank untouched. Last write wins.
func (u *userConnections) UpdateConnection(ctx context.Context, conn connect.Connection) error {
	data := conn.CreateData()
	record, err := u.parent.toRecord(u.userID, data)
	if err != nil {
		return err
	}
	err = u.parent.store.db.WithContext(ctx).
		Model(&models.UserConnection{}).
		Where("user_id = ? AND provider_id = ? AND provider_user_id = ?",
			u.userID, data.ProviderID, data.ProviderUserID).
		Updates(map[string]any{
			"display_name":  record.DisplayName,
			"profile_url":   record.ProfileURL,
			"image_url":     record.ImageURL,
			"access_token":  record.AccessToken,
			"secret":        record.Secret,
			"refresh_token": record.RefreshToken,
			"expire_time":   record.ExpireTime,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	return nil
}

func (u *userConnections) RemoveConnections(ctx context.Context, providerID string) error {
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", u.userID, providerID).
		Delete(&models.UserConnection{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove connections: %w", err)
	}
	return nil
}

func (u *userConnections) RemoveConnection(ctx context.Context, key connect.ConnectionKey) error {
	err := u.parent.store.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ? AND provider_user_id = ?",
			u.userID, key.ProviderID, key.ProviderUserID).
		Delete(&models.UserConnection{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}
	return nil
}

// toRecord encrypts token fields and maps a snapshot onto the row model.
// Empty token fields stay empty rather than becoming encrypted empty strings.
func (r *ConnectionsRepository) toRecord(
	userID string,
	data connect.ConnectionData,
) (*models.UserConnection, error) {
	accessToken, err := r.encryptField(data.AccessToken)
	if err != nil {
		return nil, err
	}
	secret, err := r.encryptField(data.Secret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := r.encryptField(data.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &models.UserConnection{
		UserID:         userID,
		ProviderID:     data.ProviderID,
		ProviderUserID: data.ProviderUserID,
		DisplayName:    data.DisplayName,
		ProfileURL:     data.ProfileURL,
		ImageURL:       data.ImageURL,
		AccessToken:    accessToken,
		Secret:         secret,
		RefreshToken:   refreshToken,
		ExpireTime:     data.ExpireTime,
	}, nil
}

// toConnection decrypts token fields and rehydrates through the provider's
// registered factory.
func (r *ConnectionsRepository) toConnection(
	record *models.UserConnection,
) (connect.Connection, error) {
	accessToken, err := r.decryptField(record.AccessToken)
	if err != nil {
		return nil, err
	}
	secret, err := r.decryptField(record.Secret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := r.decryptField(record.RefreshToken)
	if err != nil {
		return nil, err
	}
	factory, err := r.registry.ByProviderID(record.ProviderID)
	if err != nil {
		return nil, err
	}
	return factory.CreateConnection(connect.ConnectionData{
		ProviderID:     record.ProviderID,
		ProviderUserID: record.ProviderUserID,
		DisplayName:    record.DisplayName,
		ProfileURL:     record.ProfileURL,
		ImageURL:       record.ImageURL,
		AccessToken:    accessToken,
		Secret:         secret,
		RefreshToken:   refreshToken,
		ExpireTime:     record.ExpireTime,
	})
}

func (r *ConnectionsRepository) encryptField(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	encrypted, err := r.encryptor.Encrypt(value)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return encrypted, nil
}

func (r *ConnectionsRepository) decryptField(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	decrypted, err := r.encryptor.Decrypt(value)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return decrypted, nil
}
