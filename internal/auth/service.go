package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitwise-session||"
	tokensSetKey     = "fitwise-sessions"
	tokenLength      = 35
)

var ErrWrongCredentials = errors.New("wrong credentials")

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type Service struct {
	usersRepo   usersRepo
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	usersRepo usersRepo,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		usersRepo:      usersRepo,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) Register(ctx context.Context, credentials Credentials, createdAt time.Time) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	passwordHash, err := pkg.HashPassword(credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := as.usersRepo.Add(ctx, User{
		Email:        strings.ToLower(strings.TrimSpace(credentials.Email)),
		Name:         credentials.Name,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return user, nil
}

func (as *Service) Login(ctx context.Context, credentials Credentials, createdAt time.Time) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := as.usersRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(credentials.Email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrWrongCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(credentials.Password, user.PasswordHash) {
		return "", ErrWrongCredentials
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sess := session{userID: user.ID, createdAt: createdAt}
	sessionKey := sessionKeyPrefix + token
	if err := as.redisClient.Set(ctx, sessionKey, sess.encode(), 0).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", fmt.Errorf("add session token: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return token, nil
}

// Logout removes the session behind token. It reports false when there was no such session.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	val, err := as.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if _, err := decodeSession(val); err != nil {
		return false, err
	}

	if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return true, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return
	}

	log.Infof("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	now := time.Now()
	var toRemove []string
	for _, token := range sessionTokens {
		val, err := as.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// dangling token in the set
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		sess, err := decodeSession(val)
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if sess.expired(now, as.ttl) {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}

		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}
	}
	log.Infof("auth service, scan and clean done, removed %d sessions", len(toRemove))
}
