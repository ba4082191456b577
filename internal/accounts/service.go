package accounts

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"arheritage/internal/apperr"
	"arheritage/internal/logging"
	"arheritage/internal/records"
)

const (
	defaultBcryptCost = 12
	minPasswordLength = 8

	MsgInvalidEmail      = "Please enter a valid email address."
	MsgPasswordTooShort  = "Password must be at least 8 characters long."
	MsgEmailRegistered   = "This email address is already registered."
	MsgInvalidCredential = "Incorrect email or password."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is an authenticated login.
type Session struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Subject is the token subject: the lowercased account email.
func (s Session) Subject() string {
	return strings.ToLower(s.Email)
}

// Service owns account creation and login.
type Service struct {
	records    *records.Store
	tokens     *TokenIssuer
	ttl        time.Duration
	bcryptCost int
	logger     *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost factor.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "accounts")
	}
}

// NewService builds a Service. An empty secret makes sessions valid only for
// the lifetime of the process.
func NewService(store *records.Store, secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	s := &Service{
		records:    store,
		tokens:     NewTokenIssuer(key),
		ttl:        ttl,
		bcryptCost: defaultBcryptCost,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(strings.TrimSpace(secret)) == 0 {
		logging.WarnWithContext(s.logger, "session secret not configured", "session_secret_ephemeral",
			logging.String(logging.FieldErrorHint, "set session.secret or ARHERITAGE_SESSION_SECRET"),
			logging.String(logging.FieldImpact, "sessions end when the process restarts"),
		)
	}
	return s, nil
}

// ValidateEmail checks the local@domain.tld shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Validation("accounts.validate", MsgInvalidEmail)
	}
	return nil
}

// ValidatePassword enforces the minimum length in characters.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.Validation("accounts.validate", MsgPasswordTooShort)
	}
	return nil
}

// SignUp validates and registers a new account and logs it in.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	if err := ValidateEmail(email); err != nil {
		return Session{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Session{}, err
	}
	if s.records.EmailTaken(ctx, email) {
		return Session{}, apperr.Validation("accounts.signup", MsgEmailRegistered)
	}

	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	account := records.Account{Name: strings.TrimSpace(name), Email: email, Password: string(hash)}
	added, err := s.records.AddAccount(ctx, account)
	if err != nil {
		return Session{}, err
	}
	if !added {
		return Session{}, apperr.Validation("accounts.signup", MsgEmailRegistered)
	}

	logging.WithContext(ctx, s.logger).Info("account created",
		logging.String(logging.FieldEventType, "account_created"),
		logging.String("email", strings.ToLower(email)),
	)
	return s.issue(account)
}

// Login verifies credentials and returns a session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, ok := s.records.FindAccount(ctx, strings.TrimSpace(email))
	if !ok {
		return Session{}, apperr.Wrap(apperr.ErrUnauthorized, "accounts.login", MsgInvalidCredential, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), passwordDigest(password)); err != nil {
		return Session{}, apperr.Wrap(apperr.ErrUnauthorized, "accounts.login", MsgInvalidCredential, ErrInvalidCredentials)
	}
	logging.WithContext(ctx, s.logger).Info("login succeeded",
		logging.String(logging.FieldEventType, "login"),
		logging.String("email", strings.ToLower(account.Email)),
	)
	return s.issue(account)
}

// VerifyToken returns the lowercased email carried by a valid session token.
func (s *Service) VerifyToken(token string) (string, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUnauthorized, "accounts.verify", "Please sign in again.", err)
	}
	return subject, nil
}

// Account returns the stored account for a session subject.
func (s *Service) Account(ctx context.Context, email string) (records.Account, bool) {
	return s.records.FindAccount(ctx, email)
}

// passwordDigest condenses a password to 44 bytes so bcrypt's 72-byte input
// limit never applies.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func (s *Service) issue(account records.Account) (Session, error) {
	expires := time.Now().Add(s.ttl)
	token, err := s.tokens.Generate(strings.ToLower(account.Email), s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: token, Name: account.Name, Email: account.Email, ExpiresAt: expires.UTC()}, nil
}
