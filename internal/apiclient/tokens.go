package apiclient

import (
	"context"
	"errors"

	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// TokenStore keeps the bearer pair in a storage backend.
type TokenStore struct {
	Store storage.Store
}

func NewTokenStore(s storage.Store) *TokenStore {
	return &TokenStore{Store: s}
}

func (t *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, err := t.Store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (t *TokenStore) Access(ctx context.Context) (string, error) {
	return t.get(ctx, AccessTokenKey)
}

func (t *TokenStore) Refresh(ctx context.Context) (string, error) {
	return t.get(ctx, RefreshTokenKey)
}

func (t *TokenStore) SetAccess(ctx context.Context, token string) error {
	return t.Store.Set(ctx, AccessTokenKey, []byte(token))
}

func (t *TokenStore) Save(ctx context.Context, access, refresh string) error {
	if err := t.Store.Set(ctx, AccessTokenKey, []byte(access)); err != nil {
		return err
	}
	return t.Store.Set(ctx, RefreshTokenKey, []byte(refresh))
}

// Clear drops both tokens. Missing keys are not an error.
func (t *TokenStore) Clear(ctx context.Context) error {
	return errors.Join(
		ignoreMissing(t.Store.Delete(ctx, AccessTokenKey)),
		ignoreMissing(t.Store.Delete(ctx, RefreshTokenKey)),
	)
}

func ignoreMissing(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
