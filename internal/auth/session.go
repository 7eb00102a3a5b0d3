package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedSession = errors.New("malformed session")

// session values are stored in redis as "<userID>|<createdAtUnix>"
type session struct {
	userID    int
	createdAt time.Time
}

func (s session) encode() string {
	return fmt.Sprintf("%d|%d", s.userID, s.createdAt.Unix())
}

func decodeSession(val string) (session, error) {
	userIDStr, createdAtStr, found := strings.Cut(val, "|")
	if !found {
		return session{}, fmt.Errorf("%w: %q", ErrMalformedSession, val)
	}

	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		return session{}, fmt.Errorf("%w: user id: %s", ErrMalformedSession, err)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return session{}, fmt.Errorf("%w: created at: %s", ErrMalformedSession, err)
	}

	return session{
		userID:    userID,
		createdAt: time.Unix(createdAtUnix, 0),
	}, nil
}

func (s session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.createdAt) > ttl
}
