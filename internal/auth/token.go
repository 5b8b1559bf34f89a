package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/Mepiyou/myfirstfront/internal/database"
)

// tokenKey matches the localStorage key of the original web client so a
// migrated store stays readable.
const tokenKey = "mff_jwt_v1"

// ErrNoToken is returned when no bearer token is stored.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the bearer token issued by the remote API.
// The client never verifies the signature (it does not know the
// server's secret); it only stores, attaches and inspects the token.
type TokenStore struct {
	db *bolt.DB
}

func NewTokenStore(db *bolt.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Save stores the token. A store failure propagates: a login must not
// be reported successful with nothing persisted.
func (s *TokenStore) Save(token string) error {
	return database.PutState(s.db, tokenKey, []byte(token))
}

// Load returns the stored token or ErrNoToken.
func (s *TokenStore) Load() (string, error) {
	v, err := database.GetState(s.db, tokenKey)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return "", ErrNoToken
	}
	return string(v), nil
}

// Clear forgets the stored token. Clearing an empty store is a no-op.
func (s *TokenStore) Clear() error {
	return database.DeleteState(s.db, tokenKey)
}

// Expiry inspects the stored token's exp claim without verifying the
// signature. Opaque (non-JWT) tokens and tokens without an exp claim
// report a zero time: the shell treats them as never expiring and
// leaves rejection to the server.
func (s *TokenStore) Expiry() (time.Time, error) {
	token, err := s.Load()
	if err != nil {
		return time.Time{}, err
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
