package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is the lifetime of an admin token when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

// TokenType is reported alongside every issued token.
const TokenType = "bearer"

// ErrUnauthorized is returned for every failed login or token check. Callers
// get no hint about which part was wrong.
var ErrUnauthorized = errors.New("invalid credentials")

// Config holds the single administrator credential and token settings.
type Config struct {
	Username string
	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
	Issuer       string
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Gate issues and verifies admin tokens.
type Gate struct {
	username []byte
	hash     []byte
	secret   []byte
	ttl      time.Duration
	issuer   string
	parser   *jwt.Parser

	now func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate validates cfg and creates a Gate.
func NewGate(cfg Config, opts ...GateOption) (*Gate, error) {
	if cfg.Username == "" {
		return nil, errors.New("admin username is empty")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, errors.Wrap(err, "admin password hash")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	g := &Gate{
		username: []byte(cfg.Username),
		hash:     []byte(cfg.PasswordHash),
		secret:   cfg.Secret,
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return g.now() }),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	g.parser = jwt.NewParser(parserOpts...)

	return g, nil
}

// Login checks the credential pair and issues a signed token. The username
// and password are both always checked.
func (g *Gate) Login(ctx context.Context, username, password string) (Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), g.username) == 1
	passErr := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if !userOK || passErr != nil {
		zctx.From(ctx).Info("Admin login rejected", zap.String("username", username))
		return Token{}, ErrUnauthorized
	}

	now := g.now()
	exp := now.Add(g.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    g.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return Token{}, errors.Wrap(err, "sign token")
	}

	return Token{AccessToken: signed, TokenType: TokenType, ExpiresAt: exp}, nil
}

// Authenticate verifies a token and returns its subject.
func (g *Gate) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	var claims jwt.RegisteredClaims
	_, err := g.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
