package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/repository"
	"github.com/iliyamo/advocate-booking/internal/utils"
)

// IdentityConfig carries the token and hashing parameters.
type IdentityConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	// RequirePayment registers advocates inactive until their fee is paid.
	RequirePayment bool
}

// IdentityService registers and authenticates accounts and manages their
// token sessions.
type IdentityService struct {
	Accounts AccountStore
	Tokens   TokenStore
	Cfg      IdentityConfig
	Log      *zap.Logger

	dummyOnce sync.Once
	dummy     string
}

// verifyPassword is swapped out by tests to observe password checks.
var verifyPassword = utils.VerifyPassword

// dummyHash is a bcrypt hash at the configured cost.  Unknown login keys
// are checked against it so a miss costs as much as a wrong password.
func (s *IdentityService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = utils.HashPassword("advocate-booking/unknown-account", s.Cfg.BcryptCost)
	})
	return s.dummy
}

func NewIdentityService(accounts AccountStore, tokens TokenStore, cfg IdentityConfig, log *zap.Logger) *IdentityService {
	return &IdentityService{Accounts: accounts, Tokens: tokens, Cfg: cfg, Log: log}
}

type ClientRegistration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type AdvocateRegistration struct {
	Name      string
	Email     string
	Phone     string
	BarNumber string
	Password  string
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

func checkCommon(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name is required")
	}
	if !validEmail(strings.TrimSpace(email)) {
		return invalid("email is invalid")
	}
	if len(password) < 6 {
		return invalid("password must be at least 6 characters")
	}
	return nil
}

// RegisterClient creates a client account.  A taken email fails with
// ErrDuplicateKey and nothing is written.
func (s *IdentityService) RegisterClient(ctx context.Context, in ClientRegistration) (model.Account, error) {
	if err := checkCommon(in.Name, in.Email, in.Password); err != nil {
		return model.Account{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.Cfg.BcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	a := model.NewClient(strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone))
	a.PasswordHash = hash
	if err := s.Accounts.CreateClient(ctx, &a); err != nil {
		return model.Account{}, registrationError(err)
	}
	s.Log.Info("client registered", zap.Uint64("account_id", a.ID))
	return a, nil
}

// RegisterAdvocate creates an advocate account and its empty profile.  A
// taken email or bar number fails with ErrDuplicateKey.  The advocate is
// active right away unless a registration fee is configured.
func (s *IdentityService) RegisterAdvocate(ctx context.Context, in AdvocateRegistration) (model.Account, error) {
	if err := checkCommon(in.Name, in.Email, in.Password); err != nil {
		return model.Account{}, err
	}
	bar := strings.ToUpper(strings.TrimSpace(in.BarNumber))
	if bar == "" || len(bar) > 50 {
		return model.Account{}, invalid("bar number is required")
	}
	hash, err := utils.HashPassword(in.Password, s.Cfg.BcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	a := model.NewAdvocate(strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone), bar, !s.Cfg.RequirePayment)
	a.PasswordHash = hash
	p := model.AdvocateProfile{ConsultationFee: model.DefaultConsultationFee}
	if err := s.Accounts.CreateAdvocate(ctx, &a, &p); err != nil {
		return model.Account{}, registrationError(err)
	}
	s.Log.Info("advocate registered", zap.Uint64("account_id", a.ID), zap.Bool("active", a.IsActiveAdvocate()))
	return a, nil
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return errors.Join(ErrDuplicateKey, err)
	case errors.Is(err, repository.ErrBarNumberExists):
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}

// Authenticate looks the account up by its role-specific login key (email
// for clients, bar number for advocates) and checks the password.  It fails
// with ErrNotFound for an unknown key and ErrBadCredential for a wrong
// password or a disabled account; callers must not show the difference.
func (s *IdentityService) Authenticate(ctx context.Context, role model.Role, loginKey, password string) (model.Account, error) {
	var (
		a   model.Account
		err error
	)
	switch role {
	case model.RoleClient:
		a, err = s.Accounts.GetByEmail(ctx, role, loginKey)
	case model.RoleAdvocate:
		a, err = s.Accounts.GetByBarNumber(ctx, strings.ToUpper(strings.TrimSpace(loginKey)))
	default:
		return model.Account{}, invalid("unknown role %q", role)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = verifyPassword(s.dummyHash(), password)
		}
		return model.Account{}, notFound(err)
	}
	if !verifyPassword(a.PasswordHash, password) || !a.IsActive {
		return model.Account{}, ErrBadCredential
	}
	return a, nil
}

// IssueTokens signs an access token for a and stores a new refresh token.
func (s *IdentityService) IssueTokens(ctx context.Context, a model.Account) (TokenPair, error) {
	at, err := utils.NewAccessToken(s.Cfg.JWTSecret, a.ID, a.Role, s.Cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	rt, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Tokens.StoreRefresh(ctx, a.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: at.Token, AccessExpiresAt: at.Exp, RefreshToken: rt.Raw, RefreshExpiresAt: rt.Exp}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair issued.  Unknown, expired or revoked tokens fail with
// ErrBadCredential.
func (s *IdentityService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	if raw == "" {
		return TokenPair{}, ErrBadCredential
	}
	id, err := s.Tokens.Consume(ctx, utils.HashRefreshRaw(raw))
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrBadCredential
	}
	if err != nil {
		return TokenPair{}, err
	}
	a, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrBadCredential
		}
		return TokenPair{}, err
	}
	if !a.IsActive {
		return TokenPair{}, ErrBadCredential
	}
	return s.IssueTokens(ctx, a)
}

// Logout revokes one refresh token, or every token of accountID when raw
// is empty.
func (s *IdentityService) Logout(ctx context.Context, accountID uint64, raw string) error {
	if raw != "" {
		return s.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	}
	return s.Tokens.RevokeAllForAccount(ctx, accountID)
}

// Account resolves the acting account of an authenticated request.
func (s *IdentityService) Account(ctx context.Context, id uint64) (model.Account, error) {
	a, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		return model.Account{}, notFound(err)
	}
	return a, nil
}
