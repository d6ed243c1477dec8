// Package auth registers designers and clients and verifies their credentials.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

var (
	// ErrDuplicateEmail is returned when the email already belongs to any user.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is the single failure for every rejected login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while an email is locked out.
	ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts")
	// ErrCodeSpaceExhausted is returned when no unused access code was found.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique access code")
)

// Generic login messages shown to users. They never reveal which part failed.
const (
	DesignerLoginFailed = "Invalid email or password"
	ClientLoginFailed   = "Invalid email or access code"
)

// Access code format.
const (
	ClientCodeLength   = 6
	ClientCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts    = 64
)

// UserStore is the part of the credential store the Authenticator needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ClientCodeExists(ctx context.Context, code string) (bool, error)
}

// Options tune the Authenticator.
type Options struct {
	// BcryptCost is clamped to at least 10.
	BcryptCost int
	// Random supplies entropy for access codes. Defaults to crypto/rand.
	Random io.Reader
}

// Authenticator owns registration and credential checks.
type Authenticator struct {
	users  UserStore
	cost   int
	random io.Reader
}

// New creates an Authenticator over users.
func New(users UserStore, opts Options) *Authenticator {
	cost := opts.BcryptCost
	if cost < 10 {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	random := opts.Random
	if random == nil {
		random = rand.Reader
	}
	return &Authenticator{users: users, cost: cost, random: random}
}

// WithStore returns a copy bound to another store, typically one scoped to a
// transaction.
func (a *Authenticator) WithStore(users UserStore) *Authenticator {
	cp := *a
	cp.users = users
	return &cp
}

// LookupUser returns the user with id, or nil when none exists.
func (a *Authenticator) LookupUser(ctx context.Context, id int64) (*models.User, error) {
	return a.users.GetByID(ctx, id)
}

type designerRegistration struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required"`
}

// RegisterDesigner creates a designer account and returns its id.
func (a *Authenticator) RegisterDesigner(ctx context.Context, name, email, password string) (int64, error) {
	in := designerRegistration{
		Name:     strings.TrimSpace(name),
		Email:    models.NormalizeEmail(email),
		Password: password,
	}
	if err := validate.Struct(in); err != nil {
		return 0, err
	}
	if err := ValidatePassword(password); err != nil {
		return 0, err
	}

	if err := a.ensureEmailFree(ctx, in.Email); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := models.NewDesigner(in.Name, in.Email, string(hash))
	if err := a.users.Create(ctx, user); err != nil {
		if isUniqueEmailViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create designer: %w", err)
	}
	return user.ID, nil
}

type clientRegistration struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"required,email,max=254"`
}

// RegisterClient creates a client account with a fresh access code. The
// returned user carries the code in ClientCode.
func (a *Authenticator) RegisterClient(ctx context.Context, name, email string, designerID int64) (*models.User, error) {
	in := clientRegistration{Name: strings.TrimSpace(name), Email: models.NormalizeEmail(email)}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	if err := a.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}

	code, err := a.GenerateClientCode(ctx)
	if err != nil {
		return nil, err
	}

	user := models.NewClient(in.Name, in.Email, code, designerID)
	if err := a.users.Create(ctx, user); err != nil {
		if isUniqueEmailViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return user, nil
}

// GenerateClientCode draws random codes until one is not in use.
func (a *Authenticator) GenerateClientCode(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := randomCode(a.random)
		if err != nil {
			return "", fmt.Errorf("generate access code: %w", err)
		}
		exists, err := a.users.ClientCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode(r io.Reader) (string, error) {
	size := big.NewInt(int64(len(ClientCodeAlphabet)))
	b := make([]byte, ClientCodeLength)
	for i := range b {
		n, err := rand.Int(r, size)
		if err != nil {
			return "", err
		}
		b[i] = ClientCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// LoginDesigner verifies a designer's email and password.
func (a *Authenticator) LoginDesigner(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsDesigner() || user.PasswordHash == "" {
		// Keep timing close to the real path.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginClient verifies a client's email and access code. The code is
// compared case-insensitively.
func (a *Authenticator) LoginClient(ctx context.Context, email, code string) (*models.User, error) {
	code = NormalizeCode(code)
	if len(code) != ClientCodeLength {
		return nil, ErrInvalidCredentials
	}
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != models.RoleClient {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(user.ClientCode), []byte(code)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// NormalizeCode trims and upper-cases an access code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (a *Authenticator) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return ErrDuplicateEmail
	}
	return nil
}

// isUniqueEmailViolation catches the race where two registrations pass the
// pre-check for the same email.
func isUniqueEmailViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("atelier-dummy-password"), bcrypt.DefaultCost)
	})
	return dummy
}
