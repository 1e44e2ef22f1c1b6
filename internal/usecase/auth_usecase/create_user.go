package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"revintel/internal/domain/model"
	"revintel/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ユーザー作成の入力（CLIから）
type CreateUserInput struct {
	Email    string
	Password string
	Role     model.Role
}

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidRole        = errors.New("invalid role")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const minPasswordLength = 12

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type CreateUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// DI
func NewCreateUserUsecase(userRepo repository.UserRepository, hasher PasswordHasher) *CreateUserUsecase {
	return &CreateUserUsecase{userRepo: userRepo, hasher: hasher}
}

func (u *CreateUserUsecase) Execute(ctx context.Context, in CreateUserInput) (model.User, error) {
	email := normalizeEmail(in.Email)
	if !isValidEmailFormat(email) {
		return model.User{}, ErrInvalidEmailFormat
	}
	if len(in.Password) < minPasswordLength {
		return model.User{}, ErrPasswordTooShort
	}
	if isWeakPassword(in.Password) {
		return model.User{}, ErrWeakPassword
	}
	if !in.Role.Valid() {
		return model.User{}, ErrInvalidRole
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return model.User{}, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         in.Role,
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrEmailAlreadyExists
		}
		return model.User{}, err
	}
	return *user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password1234": {},
		"123456789012": {},
		"qwertyuiop12": {},
		"adminadmin12": {},
		"letmeinletme": {},
	}

	_, ok := weak[normalized]
	return ok
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
