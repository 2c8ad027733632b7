package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mergington/announcements/internal/store"
	"github.com/mergington/announcements/types"
)

// TeacherRepository defines the identity store operations.
type TeacherRepository interface {
	GetByUsername(ctx context.Context, username string) (types.Teacher, error)
	Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error)
}

// ErrTokensDisabled is returned by Login when no token issuer is configured.
var ErrTokensDisabled = errors.New("session tokens are disabled")

// Authenticator turns a bearer credential into a teacher.
type Authenticator struct {
	teachers TeacherRepository
	verifier PasswordVerifier
	tokens   *TokenIssuer
}

// NewAuthenticator constructs an Authenticator. tokens may be nil, in which
// case only base64 credential pairs are accepted.
func NewAuthenticator(teachers TeacherRepository, verifier PasswordVerifier, tokens *TokenIssuer) *Authenticator {
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &Authenticator{
		teachers: teachers,
		verifier: verifier,
		tokens:   tokens,
	}
}

// Authenticate accepts base64("username:password") or, when session tokens
// are enabled, a JWT issued by Login.
func (a *Authenticator) Authenticate(ctx context.Context, credential string) (types.Teacher, error) {
	if credential == "" {
		return types.Teacher{}, &AuthError{Reason: AuthMissingCredentials}
	}

	if a.tokens != nil && looksLikeJWT(credential) {
		username, err := a.tokens.Subject(credential)
		if err != nil {
			return types.Teacher{}, &AuthError{Reason: AuthInvalidCredentials, Err: err}
		}
		return a.lookup(ctx, username)
	}

	username, secret, err := decodeCredential(credential)
	if err != nil {
		return types.Teacher{}, err
	}

	teacher, err := a.lookup(ctx, username)
	if err != nil {
		return types.Teacher{}, err
	}
	if !a.verifier.Verify(teacher.PasswordHash, secret) {
		return types.Teacher{}, &AuthError{Reason: AuthInvalidCredentials}
	}
	return teacher, nil
}

// Login verifies a username and password and issues a session token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (types.Teacher, string, error) {
	if a.tokens == nil {
		return types.Teacher{}, "", ErrTokensDisabled
	}

	teacher, err := a.lookup(ctx, username)
	if err != nil {
		return types.Teacher{}, "", err
	}
	if !a.verifier.Verify(teacher.PasswordHash, password) {
		return types.Teacher{}, "", &AuthError{Reason: AuthInvalidCredentials}
	}

	token, err := a.tokens.Issue(teacher.Username)
	if err != nil {
		return types.Teacher{}, "", err
	}
	return teacher, token, nil
}

// TokensEnabled reports whether session tokens can be issued.
func (a *Authenticator) TokensEnabled() bool {
	return a.tokens != nil
}

func (a *Authenticator) lookup(ctx context.Context, username string) (types.Teacher, error) {
	teacher, err := a.teachers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Teacher{}, &AuthError{Reason: AuthInvalidCredentials}
		}
		return types.Teacher{}, &AuthError{Reason: AuthStoreUnavailable, Err: err}
	}
	return teacher, nil
}

func decodeCredential(credential string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return "", "", &AuthError{Reason: AuthInvalidEncoding, Err: err}
	}
	if !utf8.Valid(decoded) {
		return "", "", &AuthError{Reason: AuthInvalidEncoding, Err: errors.New("credential is not valid utf-8")}
	}

	username, secret, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", &AuthError{Reason: AuthMalformedToken}
	}
	return username, secret, nil
}

func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// TokenIssuer signs and verifies HS256 session tokens whose subject is the
// teacher's username.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *TokenIssuer) Issue(username string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Subject(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}
