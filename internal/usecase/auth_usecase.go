package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash string, plain string) bool
}

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// アクセストークン発行の約束。実装はmain側（JWT）。
type TokenIssuer interface {
	Issue(user model.User, now time.Time) (string, time.Time, error)
}

type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptPasswordHasher) Verify(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

type AuthUsecase struct {
	userRepo repo.UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	clock    Clock
}

func NewAuthUsecase(
	userRepo repo.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		clock:    clock,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type UserOutput struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AuthOutput struct {
	Token string     `json:"token"`
	User  UserOutput `json:"user"`
}

// Register は会員登録。emailは形式チェック、passwordは最低6文字。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	email := strings.TrimSpace(in.Email)

	if !isValidEmailFormat(email) {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid email")
	}
	if len(in.Password) < 6 {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "password too short")
	}

	//email重複チェック
	_, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return AuthOutput{}, NewHTTPError(http.StatusConflict, CodeUserExists, "email already used")
	}
	if err != repo.ErrNotFound {
		return AuthOutput{}, errInternal()
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, errInternal()
	}

	now := u.clock.Now()
	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, &user); err != nil {
		return AuthOutput{}, errInternal()
	}

	return u.issueFor(user)
}

type LoginInput struct {
	Email    string
	Password string
}

// Login はメール＋パスワード認証。
// どちらが間違っていても同じINVALID_CREDENTIALSを返す。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (AuthOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "email and password are required")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		return AuthOutput{}, NewHTTPError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return AuthOutput{}, errInternal()
	}

	if !u.hasher.Verify(user.PasswordHash, in.Password) {
		return AuthOutput{}, NewHTTPError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
	}

	return u.issueFor(user)
}

// Me は自分のプロフィールを返す。
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, errUnauthorized()
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "user not found")
	}
	if err != nil {
		return UserOutput{}, errInternal()
	}

	return toUserOutput(user), nil
}

func (u *AuthUsecase) issueFor(user model.User) (AuthOutput, error) {
	token, _, err := u.issuer.Issue(user, u.clock.Now())
	if err != nil {
		return AuthOutput{}, errInternal()
	}
	return AuthOutput{Token: token, User: toUserOutput(user)}, nil
}

func toUserOutput(user model.User) UserOutput {
	return UserOutput{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}

func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
