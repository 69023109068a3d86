// Package auth はパスワード認証、セッション管理、所有権判定を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
	"github.com/hitoshi/blogapi/internal/security"
)

// 入力値の制約。
const (
	MaxNameLength     = 50
	MaxEmailLength    = 255
	MinPasswordLength = 6
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
	CompareDummy(plain string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// SignUpInput はユーザー登録の入力。
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
	}
}

// SignUp はユーザーを登録し、セッションを発行する。
// パスワードはbcryptハッシュのみを保存する。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.User, *model.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if apiErr := validateSignUp(in); apiErr != nil {
		return nil, nil, apiErr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           model.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, model.NewUserAlreadyExistsError()
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return user, session, nil
}

// Login はメールアドレスとパスワードでユーザーを認証し、セッションを発行する。
// 未登録のメールアドレスとパスワード誤りは同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil, model.NewValidationError("email", "必須項目です")
	}
	if password == "" {
		return nil, nil, model.NewValidationError("password", "必須項目です")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// 照合時間からユーザーの存在が推測されないようダミーハッシュと照合する
		_ = s.hasher.CompareDummy(password)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, nil, model.NewInvalidCredentialsError()
		}
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// Logout はセッションを破棄する。
// 有効なセッションがない場合はSESSION_NOT_FOUNDを返す。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return model.NewSessionNotFoundError()
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// validateSignUp は登録入力を検証し、最初に見つかった違反を返す。
func validateSignUp(in SignUpInput) *model.APIError {
	switch {
	case in.Name == "":
		return model.NewValidationError("name", "必須項目です")
	case utf8.RuneCountInString(in.Name) > MaxNameLength:
		return model.NewValidationError("name", fmt.Sprintf("%d文字以内で入力してください", MaxNameLength))
	case model.IsValidID(in.Name):
		// ユーザー名とIDを同じ経路で引くため、UUID形式の名前は登録できない
		return model.NewValidationError("name", "UUID形式のユーザー名は使用できません")
	}

	switch {
	case in.Email == "":
		return model.NewValidationError("email", "必須項目です")
	case len(in.Email) > MaxEmailLength || !isValidEmail(in.Email):
		return model.NewValidationError("email", "メールアドレスの形式が正しくありません")
	}

	switch {
	case in.Password == "":
		return model.NewValidationError("password", "必須項目です")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return model.NewValidationError("password", fmt.Sprintf("%d文字以上で入力してください", MinPasswordLength))
	case len(in.Password) > security.MaxPasswordBytes:
		return model.NewValidationError("password", fmt.Sprintf("%dバイト以内で入力してください", security.MaxPasswordBytes))
	}

	return nil
}

// validate は入力値の形式チェックに使う。
var validate = validator.New()

// isValidEmail は表示名なしの単一アドレスで、ドメインにドットを含むかどうかを判定する。
func isValidEmail(email string) bool {
	if err := validate.Var(email, "required,email"); err != nil {
		return false
	}
	return strings.Contains(email[strings.LastIndexByte(email, '@'):], ".")
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
