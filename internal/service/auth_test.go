package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordedEvent struct{ event, outcome string }

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
	issued map[string]int
}

func (r *fakeRecorder) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, outcome})
}

func (r *fakeRecorder) TokenIssued(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.issued == nil {
		r.issued = map[string]int{}
	}
	r.issued[kind]++
}

type authFixture struct {
	svc      *AuthService
	store    *repository.MemoryStore
	clock    *testClock
	recorder *fakeRecorder
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	codec, clock := newTestCodec(t)
	store := repository.NewMemoryStore()
	rec := &fakeRecorder{}
	svc := NewAuthService(store, store, codec, WithBcryptCost(bcrypt.MinCost), WithRecorder(rec))
	return &authFixture{svc: svc, store: store, clock: clock, recorder: rec}
}

func (f *authFixture) register(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	u, _, err := f.svc.Register(context.Background(), RegisterParams{
		Email:    email,
		Password: password,
		Name:     "Test User",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, token, err := f.svc.Register(ctx, RegisterParams{
		Email:      "  Alice@Example.COM ",
		Password:   "Password123",
		Name:       "Alice",
		PushTarget: "device-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.PasswordHash, "returned user must be sanitized")
	assert.Equal(t, []string{"device-1"}, u.PushTargets)

	stored, err := f.store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Password123")))

	verified, err := f.svc.VerifyAccess(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)
}

func TestRegister_Errors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "bob@example.com", "Password123", "")

	_, _, err := f.svc.Register(ctx, RegisterParams{Email: "BOB@example.com", Password: "Password123", Name: "Bob"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)

	_, _, err = f.svc.Register(ctx, RegisterParams{Email: "carol@example.com", Password: "Password123", Name: "Carol", Role: "superuser"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, _, err = f.svc.Register(ctx, RegisterParams{Email: "carol@example.com", Password: "Password123", Name: "Carol", Role: "Admin"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole, "role matching is exact")

	_, _, err = f.svc.Register(ctx, RegisterParams{Email: "bob@example.com", Password: "Password123", Name: "Bob", Role: "superuser"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser, "duplicate is reported before role")

	_, _, err = f.svc.Register(ctx, RegisterParams{Email: "not-an-email", Password: "Password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRegister_FieldLimits(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"short password", RegisterParams{Email: "dan@example.com", Password: "short", Name: "Dan"}},
		{"long password", RegisterParams{Email: "dan@example.com", Password: strings.Repeat("p", constants.MaxPasswordLength+1), Name: "Dan"}},
		{"long name", RegisterParams{Email: "dan@example.com", Password: "Password123", Name: strings.Repeat("n", constants.MaxNameLength+1)}},
		{"long email", RegisterParams{Email: strings.Repeat("e", constants.MaxEmailLength) + "@example.com", Password: "Password123"}},
		{"long push target", RegisterParams{Email: "dan@example.com", Password: "Password123", PushTarget: strings.Repeat("t", constants.MaxPushTargetLen+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Register(ctx, tt.params)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	_, _, err := f.svc.Register(ctx, RegisterParams{
		Email:    "dan@example.com",
		Password: strings.Repeat("p", constants.MaxPasswordLength),
		Name:     strings.Repeat("n", constants.MaxNameLength),
	})
	assert.NoError(t, err)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.Register(context.Background(), RegisterParams{
				Email: "race@example.com", Password: "Password123", Name: "Race",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "dave@example.com", "Password123", "admin")

	sess, err := f.svc.Login(ctx, "DAVE@example.com", "Password123", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Equal(t, model.RoleAdmin, sess.User.Role)
	assert.Empty(t, sess.User.PasswordHash)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), sess.RefreshExpiresAt)

	rec, err := f.store.FindValid(ctx, sess.RefreshToken, model.TokenRefresh, f.clock.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, u.ID, rec.UserID)

	assert.Equal(t, 2, f.recorder.issued["access"], "register and login each issue one access token")
	assert.Equal(t, 1, f.recorder.issued["refresh"])
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "erin@example.com", "Password123", "")

	_, err := f.svc.Login(context.Background(), "erin@example.com", "wrong-password", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "erin@example.com", "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_UnknownEmailAndInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "nobody@example.com", "Password123", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	u := f.register(t, "frank@example.com", "Password123", "")
	require.NoError(t, f.store.SetActive(u.ID, false))

	_, err = f.svc.Login(ctx, "frank@example.com", "Password123", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "inactive users get the same error as bad credentials")
}

func TestLogin_RotatesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "gina@example.com", "Password123", "")

	first, err := f.svc.Login(ctx, "gina@example.com", "Password123", "")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "gina@example.com", "Password123", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.VerifyRefresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken, "previous refresh token must be revoked")

	_, err = f.svc.VerifyRefresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	// Access tokens are stateless and survive rotation until they expire
	_, err = f.svc.VerifyAccess(ctx, first.AccessToken)
	assert.NoError(t, err)
}

func TestLogin_PushTargetSetSemantics(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "hank@example.com", "Password123", "")

	for i := 0; i < 2; i++ {
		sess, err := f.svc.Login(ctx, "hank@example.com", "Password123", "device-9")
		require.NoError(t, err)
		assert.Equal(t, []string{"device-9"}, sess.User.PushTargets)
	}

	stored, err := f.store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"device-9"}, stored.PushTargets)
}

func TestVerifyAccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "ivy@example.com", "Password123", "")
	sess, err := f.svc.Login(ctx, "ivy@example.com", "Password123", "")
	require.NoError(t, err)

	got, err := f.svc.VerifyAccess(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.VerifyAccess(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken, "refresh token is not an access token")

	f.clock.Advance(16 * time.Minute)
	_, err = f.svc.VerifyAccess(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestVerifyAccess_InactiveOrMissingUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "jack@example.com", "Password123", "")
	sess, err := f.svc.Login(ctx, "jack@example.com", "Password123", "")
	require.NoError(t, err)

	require.NoError(t, f.store.SetActive(u.ID, false))
	_, err = f.svc.VerifyAccess(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFoundOrInactive)

	ghost, _, err := f.svc.codec.Issue("ghost-id", model.RoleUser, model.TokenAccess)
	require.NoError(t, err)
	_, err = f.svc.VerifyAccess(ctx, ghost)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFoundOrInactive)
}

func TestVerifyRefresh_RequiresStoredRecord(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "kate@example.com", "Password123", "")

	// Signed correctly but never persisted
	orphan, _, err := f.svc.codec.Issue(u.ID, u.Role, model.TokenRefresh)
	require.NoError(t, err)
	_, err = f.svc.VerifyRefresh(ctx, orphan)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestVerifyRefresh_Expired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "liam@example.com", "Password123", "")
	sess, err := f.svc.Login(ctx, "liam@example.com", "Password123", "")
	require.NoError(t, err)

	f.clock.Advance(7*24*time.Hour + time.Second)
	_, err = f.svc.VerifyRefresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "mia@example.com", "Password123", "admin")
	sess, err := f.svc.Login(ctx, "mia@example.com", "Password123", "")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	_, err = f.svc.VerifyAccess(ctx, sess.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	access, exp, err := f.svc.RefreshAccessToken(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), exp)

	got, err := f.svc.VerifyAccess(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)

	// No rotation: the refresh token stays usable
	_, _, err = f.svc.RefreshAccessToken(ctx, sess.RefreshToken)
	assert.NoError(t, err)

	_, _, err = f.svc.RefreshAccessToken(ctx, access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken, "access token cannot refresh")
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "noah@example.com", "Password123", "")
	sess, err := f.svc.Login(ctx, "noah@example.com", "Password123", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, sess.RefreshToken))
	_, err = f.svc.VerifyRefresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	assert.NoError(t, f.svc.Logout(ctx, sess.RefreshToken), "logout is idempotent")
	assert.NoError(t, f.svc.Logout(ctx, "never-issued"))
	assert.NoError(t, f.svc.Logout(ctx, ""))
}

type failingTokenStore struct {
	repository.TokenStore
}

var errStoreDown = errors.New("store down")

func (failingTokenStore) Rotate(context.Context, *model.TokenRecord) error { return errStoreDown }
func (failingTokenStore) InvalidateByToken(context.Context, string, model.TokenKind) error {
	return errStoreDown
}
func (failingTokenStore) FindValid(context.Context, string, model.TokenKind, time.Time) (*model.TokenRecord, error) {
	return nil, errStoreDown
}

func TestStoreFailuresArePersistenceErrors(t *testing.T) {
	codec, _ := newTestCodec(t)
	users := repository.NewMemoryStore()
	svc := NewAuthService(users, failingTokenStore{}, codec, WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterParams{Email: "olga@example.com", Password: "Password123", Name: "Olga"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "olga@example.com", "Password123", "")
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)

	refresh, _, err := codec.Issue("someone", model.RoleUser, model.TokenRefresh)
	require.NoError(t, err)
	_, err = svc.VerifyRefresh(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	err = svc.Logout(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestRegisterAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.svc.RegisterAdmin(ctx, "Admin", "admin@auth.local", "Password123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.RegisterAdmin(ctx, "Admin", "admin@auth.local", "Password123")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := f.store.FindByEmail(ctx, "admin@auth.local")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
}
