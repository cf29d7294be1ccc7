// Package store is the shipped relational backend for the storage contract,
// built on GORM with sqlite and postgres dialectors. Physical table names are
// configurable through Tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Compile-time contract check.
var _ storage.Storage = (*Store)(nil)

type Store struct {
	db     *gorm.DB
	tables Tables
}

// New opens a database connection and migrates the four entity tables.
// Zero-value fields in tables fall back to DefaultTables.
func New(driver, dsn string, tables Tables) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, tables: tables.merged()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	type migration struct {
		table string
		model interface{}
	}
	for _, m := range []migration{
		{s.tables.Clients, &models.Client{}},
		{s.tables.Tokens, &models.Token{}},
		{s.tables.AuthorizationCodes, &models.AuthorizationCode{}},
		{s.tables.Scopes, &models.Scope{}},
	} {
		if err := s.db.Table(m.table).AutoMigrate(m.model); err != nil {
			return err
		}
	}
	return nil
}

// translate maps GORM errors onto the storage sentinel errors so callers
// never see backend-specific error types.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return storage.ErrDuplicateKey
	default:
		return err
	}
}

// Client operations

func (s *Store) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).Table(s.tables.Clients).
		Where("id = ?", clientID).First(&client).Error
	if err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Clients).Create(client).Error)
}

func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Clients).
		Where("id = ?", clientID).Delete(&models.Client{}).Error)
}

// Token operations

func (s *Store) GetToken(ctx context.Context, token string) (*models.Token, error) {
	var t models.Token
	err := s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("token = ?", token).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) GetTokenByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error) {
	var t models.Token
	err := s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("refresh_token = ? AND type = ?", refreshToken, models.TokenTypeAccess).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) CreateToken(ctx context.Context, token *models.Token) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Tokens).Create(token).Error)
}

func (s *Store) RevokeToken(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("token = ?", token).
		Update("status", models.TokenStatusRevoked)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RevokeTokensByRefreshToken(ctx context.Context, refreshToken string) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("refresh_token = ? AND type = ?", refreshToken, models.TokenTypeAccess).
		Update("status", models.TokenStatusRevoked).Error)
}

func (s *Store) DeleteToken(ctx context.Context, token string) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("token = ?", token).Delete(&models.Token{}).Error)
}

func (s *Store) DeleteExpiredTokens(ctx context.Context) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Tokens).
		Where("expires_at < ?", time.Now()).Delete(&models.Token{}).Error)
}

// Authorization code operations

func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	var ac models.AuthorizationCode
	err := s.db.WithContext(ctx).Table(s.tables.AuthorizationCodes).
		Where("code = ?", code).First(&ac).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ac, nil
}

func (s *Store) CreateAuthorizationCode(ctx context.Context, code *models.AuthorizationCode) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.AuthorizationCodes).Create(code).Error)
}

// ConsumeAuthorizationCode marks the code used atomically. The conditional
// update (WHERE used_at IS NULL) ensures only one of two concurrent
// exchanges wins; the loser receives ErrCodeAlreadyUsed.
func (s *Store) ConsumeAuthorizationCode(ctx context.Context, code string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Table(s.tables.AuthorizationCodes).
		Where("code = ? AND used_at IS NULL", code).
		Update("used_at", &now)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish "never existed" from "already consumed".
		if _, err := s.GetAuthorizationCode(ctx, code); errors.Is(err, storage.ErrNotFound) {
			return storage.ErrNotFound
		}
		return storage.ErrCodeAlreadyUsed
	}
	return nil
}

func (s *Store) DeleteAuthorizationCode(ctx context.Context, code string) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.AuthorizationCodes).
		Where("code = ?", code).Delete(&models.AuthorizationCode{}).Error)
}

func (s *Store) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.AuthorizationCodes).
		Where("expires_at < ?", time.Now()).Delete(&models.AuthorizationCode{}).Error)
}

// Scope operations

func (s *Store) GetScope(ctx context.Context, id string) (*models.Scope, error) {
	var scope models.Scope
	err := s.db.WithContext(ctx).Table(s.tables.Scopes).
		Where("id = ?", id).First(&scope).Error
	if err != nil {
		return nil, translate(err)
	}
	return &scope, nil
}

func (s *Store) CreateScope(ctx context.Context, scope *models.Scope) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Scopes).Create(scope).Error)
}

func (s *Store) DeleteScope(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Table(s.tables.Scopes).
		Where("id = ?", id).Delete(&models.Scope{}).Error)
}

// Health checks the database connection.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM handle for host-level maintenance queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}
