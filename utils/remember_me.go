// utils/remember_me.go
package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const rememberMeTTL = 30 * 24 * time.Hour

// RememberedCredentials represents the stored credentials for "Remember Me"
type RememberedCredentials struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateRememberMeToken generates an opaque token for "Remember Me"
func GenerateRememberMeToken() string {
	return uuid.NewString()
}

func encryptionKey() ([]byte, error) {
	key := os.Getenv("REMEMBER_ME_ENCRYPTION_KEY")
	if key == "" {
		return nil, errors.New("REMEMBER_ME_ENCRYPTION_KEY environment variable is required")
	}
	if len(key) < 32 {
		return nil, errors.New("REMEMBER_ME_ENCRYPTION_KEY must be at least 32 bytes")
	}
	return []byte(key)[:32], nil
}

// EncryptCredentials encrypts the credentials before storing in Redis
func EncryptCredentials(credentials RememberedCredentials) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", err
	}

	jsonData, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, jsonData, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredentials decrypts the credentials from Redis
func DecryptCredentials(encryptedData string) (*RememberedCredentials, error) {
	key, err := encryptionKey()
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(data) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	var credentials RememberedCredentials
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return nil, err
	}
	return &credentials, nil
}

// SaveRememberMeSession stores encrypted credentials in Redis keyed by token
func SaveRememberMeSession(redisClient *redis.Client, token string, credentials RememberedCredentials) error {
	if redisClient == nil {
		return errors.New("redis is not available")
	}

	encrypted, err := EncryptCredentials(credentials)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	return redisClient.Set(context.Background(), "remember_me:"+token, encrypted, rememberMeTTL).Err()
}

// LoadRememberMeSession retrieves and decrypts credentials for the token
func LoadRememberMeSession(redisClient *redis.Client, token string) (*RememberedCredentials, error) {
	if redisClient == nil {
		return nil, errors.New("redis is not available")
	}

	encrypted, err := redisClient.Get(context.Background(), "remember_me:"+token).Result()
	if err == redis.Nil {
		return nil, errors.New("session not found")
	}
	if err != nil {
		return nil, err
	}

	credentials, err := DecryptCredentials(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	if time.Now().After(credentials.ExpiresAt) {
		redisClient.Del(context.Background(), "remember_me:"+token)
		return nil, errors.New("session expired")
	}

	return credentials, nil
}

// DeleteRememberMeSession removes the session for the token
func DeleteRememberMeSession(redisClient *redis.Client, token string) error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Del(context.Background(), "remember_me:"+token).Err()
}
