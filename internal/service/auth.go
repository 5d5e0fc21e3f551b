package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var emailRegexp = regexp.MustCompile(constants.EmailPattern)

// EventRecorder receives auth lifecycle events, typically Prometheus counters.
type EventRecorder interface {
	AuthEvent(event, outcome string)
	TokenIssued(kind string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}
func (nopRecorder) TokenIssued(string)       {}

// RegisterParams carries a registration request. Role and PushTarget are optional.
type RegisterParams struct {
	Email      string
	Password   string
	Name       string
	Role       string
	PushTarget string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *model.User
}

// AuthService owns the token lifecycle: registration, login, verification,
// refresh and logout.
type AuthService struct {
	users      repository.UserStore
	tokens     repository.TokenStore
	codec      *TokenService
	recorder   EventRecorder
	bcryptCost int
	dummyHash  []byte
}

// AuthOption customizes an AuthService
type AuthOption func(*AuthService)

func WithRecorder(r EventRecorder) AuthOption {
	return func(s *AuthService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithBcryptCost sets the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func NewAuthService(users repository.UserStore, tokens repository.TokenStore, codec *TokenService, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:      users,
		tokens:     tokens,
		codec:      codec,
		recorder:   nopRecorder{},
		bcryptCost: constants.BcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the email is unknown so that both login failure
	// paths cost one bcrypt comparison.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	return s
}

func persistence(err error) error {
	return apperrors.WrapError(apperrors.ErrPersistence, err)
}

// validRegistration applies the same field limits as the HTTP request
// binding, so callers that bypass it (the admin seed) get them too.
func validRegistration(email string, p RegisterParams) bool {
	return emailRegexp.MatchString(email) &&
		len(email) <= constants.MaxEmailLength &&
		len(p.Password) >= constants.MinPasswordLength &&
		len(p.Password) <= constants.MaxPasswordLength &&
		len(p.Name) <= constants.MaxNameLength &&
		len(p.PushTarget) <= constants.MaxPushTargetLen
}

// Register creates a user and returns it together with an access token. A
// taken email is reported before an invalid role.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*model.User, string, error) {
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "Register")

	email := model.NormalizeEmail(p.Email)
	if !validRegistration(email, p) {
		return nil, "", apperrors.ErrInvalidInput
	}

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to check existing user").
			String("email", email).
			Err(err).
			Log()
		return nil, "", persistence(err)
	}
	if exists {
		s.recorder.AuthEvent("register", "duplicate")
		return nil, "", apperrors.ErrDuplicateUser
	}

	role := model.RoleUser
	if p.Role != "" {
		parsed, ok := model.ParseRole(p.Role)
		if !ok {
			logger.InfoWithContext(ctx, "Registration rejected: invalid role").
				String("email", email).
				String("role", p.Role).
				Log()
			s.recorder.AuthEvent("register", "invalid_role")
			return nil, "", apperrors.ErrInvalidRole
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         p.Name,
		Role:         role,
		IsActive:     true,
		PushTargets:  []string{},
	}
	if p.PushTarget != "" {
		user.PushTargets = append(user.PushTargets, p.PushTarget)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.AuthEvent("register", "duplicate")
			return nil, "", apperrors.ErrDuplicateUser
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", email).
			Err(err).
			Log()
		return nil, "", persistence(err)
	}

	token, _, err := s.codec.Issue(user.ID, user.Role, model.TokenAccess)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.recorder.TokenIssued(string(model.TokenAccess))
	s.recorder.AuthEvent("register", "success")

	logger.InfoWithContext(ctx, "User registered successfully").
		String("user_id", user.ID).
		String("role", user.Role.String()).
		Log()

	return user.Sanitized(), token, nil
}

// RegisterAdmin creates an admin account unless the email is taken. It backs
// the startup seed.
func (s *AuthService) RegisterAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, _, err := s.Register(ctx, RegisterParams{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     string(model.RoleAdmin),
	})
	if errors.Is(err, apperrors.ErrDuplicateUser) {
		return false, nil
	}
	return err == nil, err
}

// Login checks credentials, rotates the user's refresh token and returns a
// fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password, pushTarget string) (*Session, error) {
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "Login")
	email = model.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get user for authentication").
			String("email", email).
			Err(err).
			Log()
		return nil, persistence(err)
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logger.LogAuth("", "login", false)
		s.recorder.AuthEvent("login", "failure")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil || !user.IsActive {
		logger.WarnWithContext(ctx, "Authentication failed").
			String("user_id", user.ID).
			Bool("active", user.IsActive).
			Log()
		logger.LogAuth(user.ID, "login", false)
		s.recorder.AuthEvent("login", "failure")
		return nil, apperrors.ErrInvalidCredentials
	}

	if pushTarget != "" && !user.HasPushTarget(pushTarget) {
		if err := s.users.AddPushTarget(ctx, user.ID, pushTarget); err != nil {
			logger.WarnWithContext(ctx, "Failed to store push target").
				String("user_id", user.ID).
				Err(err).
				Log()
		} else {
			user.PushTargets = append(user.PushTargets, pushTarget)
		}
	}

	access, accessExp, err := s.codec.Issue(user.ID, user.Role, model.TokenAccess)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refresh, refreshExp, err := s.codec.Issue(user.ID, user.Role, model.TokenRefresh)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	record := &model.TokenRecord{
		UserID:    user.ID,
		Token:     refresh,
		Kind:      model.TokenRefresh,
		ExpiresAt: refreshExp,
		Valid:     true,
	}
	if err := s.tokens.Rotate(ctx, record); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, persistence(err)
	}

	s.recorder.TokenIssued(string(model.TokenAccess))
	s.recorder.TokenIssued(string(model.TokenRefresh))
	s.recorder.AuthEvent("login", "success")
	logger.LogAuth(user.ID, "login", true)

	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		User:             user.Sanitized(),
	}, nil
}

// activeUser resolves id to an active user or UserNotFoundOrInactive.
func (s *AuthService) activeUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to resolve token subject").
			String("user_id", id).
			Err(err).
			Log()
		return nil, persistence(err)
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.ErrUserNotFoundOrInactive
	}
	return user, nil
}

// VerifyAccess validates an access token and returns its active owner.
// Access tokens are stateless: the token store is not consulted.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (*model.User, error) {
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "VerifyAccess")

	claims, err := s.codec.Decode(token, model.TokenAccess)
	if err != nil {
		logger.DebugWithContext(ctx, "Access token rejected").
			String("reason", FailureReason(err)).
			Log()
		s.recorder.AuthEvent("verify_access", FailureReason(err))
		return nil, err
	}

	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// VerifyRefresh validates a refresh token against its signature and its
// stored record, and returns the active owner.
func (s *AuthService) VerifyRefresh(ctx context.Context, token string) (*model.User, error) {
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "VerifyRefresh")

	claims, err := s.codec.Decode(token, model.TokenRefresh)
	if err != nil {
		logger.DebugWithContext(ctx, "Refresh token rejected").
			String("reason", FailureReason(err)).
			Log()
		s.recorder.AuthEvent("verify_refresh", FailureReason(err))
		return nil, err
	}

	record, err := s.tokens.FindValid(ctx, token, model.TokenRefresh, s.codec.Now())
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to look up refresh token").
			String("user_id", claims.Subject).
			Err(err).
			Log()
		return nil, persistence(err)
	}
	if record == nil || record.UserID != claims.Subject {
		logger.InfoWithContext(ctx, "Refresh token revoked or unknown").
			String("user_id", claims.Subject).
			Log()
		s.recorder.AuthEvent("verify_refresh", "revoked")
		return nil, apperrors.ErrInvalidOrExpiredToken
	}

	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	user, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}

	access, exp, err := s.codec.Issue(user.ID, user.Role, model.TokenAccess)
	if err != nil {
		return "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.recorder.TokenIssued(string(model.TokenAccess))
	s.recorder.AuthEvent("refresh", "success")
	return access, exp, nil
}

// Logout invalidates the record for refreshToken. Unknown or already revoked
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "Logout")
	if refreshToken == "" {
		return nil
	}

	if err := s.tokens.InvalidateByToken(ctx, refreshToken, model.TokenRefresh); err != nil {
		logger.ErrorWithContext(ctx, "Failed to invalidate refresh token").
			Err(err).
			Log()
		return persistence(err)
	}

	s.recorder.AuthEvent("logout", "success")
	logger.LogAuth(ctxutil.GetUserID(ctx), "logout", true)
	return nil
}
