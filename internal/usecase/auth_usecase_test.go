package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"
	"github.com/Nathan2412/project-api/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

// =====================
// Fakes
// =====================

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(hash string, plain string) bool {
	return hash == "hashed:"+plain
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(user model.User, now time.Time) (string, time.Time, error) {
	return "token-for-" + user.Email, now.Add(24 * time.Hour), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newAuthUsecase(userRepo repo.UserRepository) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(
		userRepo,
		fakeHasher{},
		fakeIssuer{},
		fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	)
}

func TestRegister_Success(t *testing.T) {
	m := new(MockUserRepository)
	m.On("FindByEmail", mock.Anything, "alice@example.com").Return(model.User{}, repo.ErrNotFound)
	m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*model.User)
		u.ID = 1
	})

	uc := newAuthUsecase(m)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret1",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-alice@example.com", out.Token)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, string(model.RoleUser), out.User.Role)

	m.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	uc := newAuthUsecase(new(MockUserRepository))

	cases := []struct {
		name string
		in   usecase.RegisterInput
	}{
		{"bad email", usecase.RegisterInput{Email: "not-an-email", Password: "secret1"}},
		{"empty email", usecase.RegisterInput{Email: "", Password: "secret1"}},
		{"short password", usecase.RegisterInput{Email: "a@example.com", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), tc.in)
			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, usecase.CodeValidation, he.Code)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	m := new(MockUserRepository)
	m.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{ID: 1, Email: "alice@example.com"}, nil)

	uc := newAuthUsecase(m)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeUserExists, he.Code)
	assert.Equal(t, 409, he.Status)
}

func TestLogin_Success(t *testing.T) {
	m := new(MockUserRepository)
	m.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{ID: 1, Email: "alice@example.com", PasswordHash: "hashed:secret1", Role: model.RoleUser}, nil)

	uc := newAuthUsecase(m)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-alice@example.com", out.Token)
	assert.Equal(t, int64(1), out.User.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m := new(MockUserRepository)
	m.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{ID: 1, Email: "alice@example.com", PasswordHash: "hashed:secret1"}, nil)
	m.On("FindByEmail", mock.Anything, "ghost@example.com").
		Return(model.User{}, repo.ErrNotFound)

	uc := newAuthUsecase(m)

	//パスワード違い・未知ユーザーのどちらも同じコード
	_, err := uc.Login(context.Background(), usecase.LoginInput{Email: "alice@example.com", Password: "wrong"})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeInvalidCredentials, he.Code)

	_, err = uc.Login(context.Background(), usecase.LoginInput{Email: "ghost@example.com", Password: "secret1"})
	he, ok = usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeInvalidCredentials, he.Code)
}

func TestMe(t *testing.T) {
	m := new(MockUserRepository)
	m.On("FindByID", mock.Anything, int64(1)).
		Return(model.User{ID: 1, Email: "alice@example.com", Name: "Alice", Role: model.RoleAdmin}, nil)
	m.On("FindByID", mock.Anything, int64(99)).
		Return(model.User{}, repo.ErrNotFound)

	uc := newAuthUsecase(m)

	out, err := uc.Me(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "admin", out.Role)

	_, err = uc.Me(context.Background(), 99)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeNotFound, he.Code)
}

func TestBcryptPasswordHasher_RoundTrip(t *testing.T) {
	h := usecase.NewBcryptPasswordHasher(4)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "secret1"))
	assert.False(t, h.Verify(hash, "secret2"))
}
