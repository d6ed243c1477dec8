package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/atelier/internal/models"
)

const tokenIssuer = "atelier"

// ErrMalformedSubject is returned when a verified token's subject is not
// "<id>:<role>:<email>".
var ErrMalformedSubject = errors.New("malformed remember-me subject")

// TokenSigner issues and verifies remember-me tokens: HS256 JWTs whose
// subject is "<userId>:<role>:<email>".
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner creates a signer keyed by secret.
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{secret: secret, now: time.Now}
}

// Subject is the decoded identity triple.
type Subject struct {
	UserID int64
	Role   models.Role
	Email  string
}

func (s Subject) String() string {
	return fmt.Sprintf("%d:%s:%s", s.UserID, s.Role, s.Email)
}

// ParseSubject splits "<id>:<role>:<email>". The email keeps any further colons.
func ParseSubject(raw string) (Subject, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return Subject{}, ErrMalformedSubject
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return Subject{}, ErrMalformedSubject
	}
	role := models.Role(parts[1])
	if !role.Valid() || parts[2] == "" {
		return Subject{}, ErrMalformedSubject
	}
	return Subject{UserID: id, Role: role, Email: parts[2]}, nil
}

// Sign issues a token for sub that expires at expiresAt.
func (t *TokenSigner) Sign(sub Subject, expiresAt time.Time) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   sub.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature, issuer and expiry, then decodes the subject.
func (t *TokenSigner) Verify(raw string) (Subject, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Subject{}, fmt.Errorf("parse token: %w", err)
	}
	return ParseSubject(claims.Subject)
}
