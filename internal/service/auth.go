// Package service contains application services for accounts, cards, sharing and profiles.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/cardvault/internal/crypto"
	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/limiter"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// AuthService defines account and session operations.
type AuthService interface {
	// SignUp creates an account plus its profile and returns a session.
	SignUp(ctx context.Context, email, password string, profile model.ProfilePatch) (model.Session, error)
	// SignIn applies rate-limiting and authenticates the account.
	SignIn(ctx context.Context, email, password, ip string) (model.Session, error)
	// SignOut invalidates every token issued to the account so far.
	SignOut(ctx context.Context, accountID uuid.UUID) error
	// Authenticate resolves a bearer token to the current account.
	Authenticate(ctx context.Context, token string) (model.Account, error)
}

type AuthServiceImpl struct {
	accounts  repository.AccountRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	log       *zap.Logger
	now       func() time.Time
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts repository.AccountRepository, signKey []byte, accessTTL time.Duration,
	lim limiter.Limiter, log *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts:  accounts,
		signKey:   signKey,
		accessTTL: accessTTL,
		lim:       lim,
		log:       log,
		now:       time.Now,
	}
}

// accessClaims carries the session generation next to the registered claims.
type accessClaims struct {
	Gen int64 `json:"gen"`
	jwt.RegisteredClaims
}

var validate = validator.New()

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if validate.Var(email, "required,email") != nil {
		return "", errs.Validation("invalid email address")
	}
	return email, nil
}

// SignUp validates credentials and stores the account with its initial profile.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string, profile model.ProfilePatch) (model.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.Session{}, err
	}
	if len(password) < MinPasswordLen {
		return model.Session{}, errs.Validation("password must be at least 6 characters")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return model.Session{}, err
	}

	a := &model.Account{ID: id, Email: email, PwdHash: hash}
	if err := s.accounts.Create(ctx, a, trimProfile(profile), s.now().UTC()); err != nil {
		return model.Session{}, errs.Storage(err)
	}
	return s.newSession(*a)
}

// SignIn authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, ip string) (model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Session{}, errs.Storage(err)
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	ok := false
	if err == nil {
		ok, err = pkgcrypto.VerifyPassword(password, a.PwdHash)
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) && !errors.Is(err, pkgcrypto.ErrMalformedHash) {
		return model.Session{}, errs.Storage(err)
	}
	if !ok {
		blocked, _, ferr := s.lim.Failure(ctx, email, ipHash)
		if ferr != nil {
			s.log.Warn("record sign-in failure", zap.Error(ferr))
		}
		if blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Session{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, email, ipHash); err != nil {
		s.log.Warn("reset sign-in failures", zap.Error(err))
	}
	return s.newSession(*a)
}

// SignOut bumps the session generation.
func (s *AuthServiceImpl) SignOut(ctx context.Context, accountID uuid.UUID) error {
	if _, err := s.accounts.BumpSessionGen(ctx, accountID); err != nil {
		return errs.Storage(err)
	}
	return nil
}

// Authenticate verifies signature, expiry and session generation.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (model.Account, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return model.Account{}, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Account{}, errs.ErrUnauthorized
	}
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Account{}, errs.ErrUnauthorized
	}
	if err != nil {
		return model.Account{}, errs.Storage(err)
	}
	if a.SessionGen != claims.Gen {
		return model.Account{}, errs.ErrUnauthorized
	}
	return *a, nil
}

func (s *AuthServiceImpl) newSession(a model.Account) (model.Session, error) {
	access, exp, err := s.issueAccessToken(a.ID, a.SessionGen)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{AccessToken: access, ExpiresAt: exp, Account: a}, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(accountID uuid.UUID, gen int64) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := accessClaims{
		Gen: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

func trimProfile(p model.ProfilePatch) model.ProfilePatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return model.ProfilePatch{Name: trim(p.Name), Company: trim(p.Company), PhotoURL: trim(p.PhotoURL)}
}
