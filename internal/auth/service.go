// Package auth はトークンの発行・更新・失効とロールによるアクセス制御を提供する。
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
)

// 認証イベント名。メトリクスのラベルとして使用する。
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventRefresh  = "refresh"
	EventLogout   = "logout"
)

// EventRecorder は認証イベントの結果を記録する。
type EventRecorder interface {
	RecordAuthEvent(event string, success bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthEvent(string, bool) {}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate は登録入力を検証する。
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.RuneLength(minPasswordRunes, 0), validation.Length(0, maxPasswordBytes)),
		validation.Field(&in.Name, validation.Required),
	)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	codec    *TokenCodec
	config   ServiceConfig
	recorder EventRecorder

	// dummyHash は未登録メールアドレスでのログイン時にも照合処理を行うためのハッシュ。
	dummyHash string
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	codec *TokenCodec,
	config ServiceConfig,
	recorder EventRecorder,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		slog.Warn("failed to prepare dummy password hash", slog.String("error", err.Error()))
	}
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		codec:     codec,
		config:    config,
		recorder:  recorder,
		dummyHash: dummyHash,
	}
}

// Register は新規アカウントを作成し、トークンの組を発行する。
// メールアドレスは正規化せず、登録済みの場合はUSER_ALREADY_EXISTSを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.TokenPair, error) {
	tokens, err := s.register(ctx, in)
	s.recorder.RecordAuthEvent(EventRegister, err == nil)
	return tokens, err
}

func (s *Service) register(ctx context.Context, in RegisterInput) (*model.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserAlreadyExistsError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	user.RefreshToken = &tokens.RefreshToken

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 同時登録で一意制約に先に到達された場合
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewUserAlreadyExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return tokens, nil
}

// Login はメールアドレスとパスワードを照合し、新しいトークンの組を発行する。
// 保存済みのリフレッシュトークンは上書きされ、以前のものは即座に無効になる。
// 未登録メールアドレスとパスワード不一致は同じINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	tokens, err := s.login(ctx, email, password)
	s.recorder.RecordAuthEvent(EventLogin, err == nil)
	return tokens, err
}

func (s *Service) login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		// 応答時間からアカウントの有無を推測されないよう照合だけは行う
		_ = s.hasher.Verify(s.dummyHash, password)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	ok, err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	if !ok {
		// 照合後に削除された
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return tokens, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンのみを発行する。
// 保存済みの値と完全一致しないトークンは署名が有効でも拒否する。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.refresh(ctx, refreshToken)
	s.recorder.RecordAuthEvent(EventRefresh, err == nil)
	return token, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", model.NewRefreshTokenRequiredError()
	}

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return "", model.NewInvalidRefreshTokenError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.RefreshToken == nil {
		return "", model.NewInvalidRefreshTokenError()
	}
	if subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return "", model.NewInvalidRefreshTokenError()
	}

	return s.codec.SignAccess(user.ID, user.Role, s.config.AccessTokenTTL)
}

// Logout はアクセストークンの持ち主のリフレッシュトークンを消去する。
// アクセストークン自体は期限まで有効なまま残る。
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	err := s.logout(ctx, accessToken)
	s.recorder.RecordAuthEvent(EventLogout, err == nil)
	return err
}

func (s *Service) logout(ctx context.Context, accessToken string) error {
	identity, err := s.Authenticate(accessToken)
	if err != nil {
		return err
	}

	found, err := s.userRepo.UpdateRefreshToken(ctx, identity.UserID, nil)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	if !found {
		slog.Warn("logout for missing user", slog.String("user_id", identity.UserID))
	}

	slog.Info("user logged out", slog.String("user_id", identity.UserID))
	return nil
}

// Authenticate はアクセストークンを検証し、クレームから呼び出し元を特定する。
// ディレクトリは参照しない。
func (s *Service) Authenticate(accessToken string) (*model.Identity, error) {
	if accessToken == "" {
		return nil, model.NewNoTokenError()
	}

	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, model.NewInvalidTokenError()
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return nil, model.NewInvalidTokenError()
	}

	return &model.Identity{UserID: claims.UserID, Role: role}, nil
}

// Authorize は呼び出し元のロールが要求ロールと一致するかを検査する。
func (s *Service) Authorize(identity *model.Identity, required model.Role) error {
	return Authorize(identity, required)
}

// Authorize はロールの完全一致を要求する。ロール間に包含関係はない。
func Authorize(identity *model.Identity, required model.Role) error {
	if identity == nil {
		return model.NewNoTokenError()
	}
	if identity.Role != required {
		return model.NewAccessDeniedError()
	}
	return nil
}

// CurrentUser は呼び出し元のアカウントを返す。削除済みの場合はUSER_NOT_FOUNDを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenPair, error) {
	access, err := s.codec.SignAccess(user.ID, user.Role, s.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.SignRefresh(user.ID, s.config.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
