// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

func GenerateSecureOTP() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base32.StdEncoding.EncodeToString(bytes)[:6], nil
}

// StoreOTP stores a password-reset OTP for the email with a 15 minute expiry
func StoreOTP(redisClient *redis.Client, email, otp string) error {
	if redisClient == nil {
		return errors.New("redis is not available")
	}
	return redisClient.Set(context.Background(), "password_reset_otp:"+email, otp, 15*time.Minute).Err()
}

// VerifyOTP checks the stored OTP for the email and deletes it on a match
func VerifyOTP(redisClient *redis.Client, email, otp string) (bool, error) {
	if redisClient == nil {
		return false, errors.New("redis is not available")
	}

	key := "password_reset_otp:" + email
	stored, err := redisClient.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != otp {
		return false, nil
	}

	redisClient.Del(context.Background(), key)
	return true, nil
}

// ValidateOTPAttempts limits OTP verification to 5 attempts per hour
func ValidateOTPAttempts(email string, redisClient *redis.Client) error {
	if redisClient == nil {
		return nil
	}

	key := "otp_attempts:" + email
	attempts, err := redisClient.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	if attempts == 1 {
		redisClient.Expire(context.Background(), key, 1*time.Hour)
	}

	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
