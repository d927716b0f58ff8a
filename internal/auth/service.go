// Package auth はアカウント登録、ログイン、アクセストークンの発行と検証、認可判定を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

// Result は登録・ログイン成功時の結果。
type Result struct {
	AccessToken string
	User        *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	gateway repository.Gateway
	hasher  PasswordHasher
	tokens  *TokenIssuer
	logger  *zap.Logger
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(gateway repository.Gateway, hasher PasswordHasher, tokens *TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// Register はアカウントを作成し、アクセストークンを発行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	user, err := s.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{AccessToken: token, User: user}, nil
}

// CreateAccount はアカウントを作成する。
// ロールがTEACHERの場合は空の講師プロフィールを同一トランザクションで作成する。
func (s *Service) CreateAccount(ctx context.Context, in RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !in.Role.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown role %q", in.Role))
	}

	existing, err := s.gateway.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるユーザー検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Users().Create(ctx, user); err != nil {
			return err
		}
		if user.Role != model.RoleTeacher {
			return nil
		}
		return store.Teachers().Create(ctx, &model.Teacher{
			ID:         uuid.NewString(),
			UserID:     user.ID,
			Subjects:   []model.Subject{},
			HourlyRate: 0,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// 事前確認と挿入の間に同じメールアドレスが登録された
		return nil, model.NewDuplicateEmailError()
	}
	if err != nil {
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	s.logger.Info("アカウントを作成しました",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Login は認証情報を検証し、アクセストークンを発行する。
// メールアドレスが存在しない場合とパスワード不一致の場合を区別しない。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.gateway.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるユーザー検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.logger.Warn("パスワード照合に失敗しました", zap.String("user_id", user.ID), zap.Error(err))
		return nil, model.NewInvalidCredentialsError()
	}
	if !ok {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{AccessToken: token, User: user}, nil
}

// GetCurrentUser は認証済みユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.gateway.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// normalizeEmail はメールアドレスの形式を検証し、小文字化して返す。
func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", model.NewValidationError("email must be a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}
