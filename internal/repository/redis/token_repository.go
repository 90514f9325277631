package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type TokenData struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenRepository keeps issued back-office tokens in Redis so they can be
// revoked before their JWT expiry.
type TokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{
		client: client,
	}
}

func tokenKey(token string) string {
	return fmt.Sprintf("auth:token:%s", token)
}

func (r *TokenRepository) StoreToken(ctx context.Context, data TokenData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return errors.New("token already expired")
	}

	if err := r.client.Set(ctx, tokenKey(data.Token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// ValidateTokenFromRedis returns the user ID bound to the token, or an error
// when the token is unknown, revoked or expired.
func (r *TokenRepository) ValidateTokenFromRedis(ctx context.Context, token string) (string, error) {
	raw, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.New("token not found")
		}
		return "", fmt.Errorf("failed to look up token: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		return "", errors.New("token expired")
	}

	return data.UserID, nil
}

func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}
