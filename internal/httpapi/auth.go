package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthManager is the shared-secret gate in front of the ledger. There are no
// user accounts: one password, configured at startup and held only as a
// bcrypt hash, unlocks a session token.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	gateHash []byte
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
}

func NewAuthManager(secret string, tokenTTL time.Duration, gatePassword string) (*AuthManager, error) {
	if strings.TrimSpace(gatePassword) == "" {
		return nil, errors.New("gate password must not be empty")
	}
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(gatePassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		gateHash: hash,
	}, nil
}

func (a *AuthManager) Login(password string) (string, time.Time, error) {
	if strings.TrimSpace(password) == "" {
		return "", time.Time{}, errors.New("invalid password")
	}
	if bcrypt.CompareHashAndPassword(a.gateHash, []byte(password)) != nil {
		return "", time.Time{}, errors.New("invalid password")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "operator",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "stockledger",
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (a *AuthManager) ParseToken(tokenStr string) error {
	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return errors.New("invalid or expired token")
	}
	if sub, err := claims.GetSubject(); err != nil || sub == "" {
		return errors.New("invalid token subject")
	}
	return nil
}
