package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maraude-bknd/internal/auth"
	"maraude-bknd/internal/config"
	"maraude-bknd/internal/logger"
	"maraude-bknd/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	db   *bun.DB
	jwt  *auth.JWTManager
	cfg  *config.Config
	logr *logger.Logger
}

func NewAuthService(db *bun.DB, jwt *auth.JWTManager, cfg *config.Config, logr *logger.Logger) *AuthService {
	return &AuthService{db: db, jwt: jwt, cfg: cfg, logr: logr}
}

// HashPassword uses bcrypt
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type RegisterInput struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	AssociationID uuid.UUID
	Role          string
	Phone         string
}

// Register provisions a volunteer account under an existing association and
// logs it straight in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, deviceInfo string) (*auth.TokenPair, *models.User, error) {
	exists, err := s.db.NewSelect().Model((*models.User)(nil)).Where("email = ?", in.Email).Exists(ctx)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, fmt.Errorf("email already registered")
	}

	var assoc models.Association
	if err := s.db.NewSelect().Model(&assoc).Where("id = ? AND is_active = true", in.AssociationID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("association not found")
		}
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleVolunteer
	}

	now := time.Now().UTC()
	u := models.User{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		PasswordHash:  hash,
		Role:          role,
		Phone:         in.Phone,
		IsActive:      true,
		AssociationID: in.AssociationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.db.NewInsert().Model(&u).Exec(ctx); err != nil {
		s.logr.Error("failed to create user", zap.Error(err), zap.String("email", in.Email))
		return nil, nil, fmt.Errorf("failed to create user account")
	}
	s.logr.Info("registered user", zap.String("email", in.Email), zap.String("id", u.ID.String()))

	pair, err := s.issueTokens(ctx, &u, deviceInfo)
	if err != nil {
		return nil, nil, err
	}
	return pair, &u, nil
}

// Login authenticates by email and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo string) (*auth.TokenPair, *models.User, error) {
	var u models.User
	err := s.db.NewSelect().Model(&u).
		Relation("Association").
		Where("u.email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := ComparePassword(u.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	// update last_login
	now := time.Now().UTC()
	_, _ = s.db.NewUpdate().Model((*models.User)(nil)).Set("last_login_at = ?", now).Where("id = ?", u.ID).Exec(ctx)

	pair, err := s.issueTokens(ctx, &u, deviceInfo)
	if err != nil {
		return nil, nil, err
	}
	return pair, &u, nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *models.User, deviceInfo string) (*auth.TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(u.ID.String(), s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL, u.TokenVersion, u.Role, u.AssociationID.String())
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExp, pair.JTI, deviceInfo); err != nil {
		return nil, err
	}
	return pair, nil
}

// storeRefreshToken stores refresh token hashed and enforces 2 sessions per user
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time, jti string, deviceInfo string) error {
	// 1) cleanup expired tokens for user
	_, _ = s.db.NewDelete().Model((*models.RefreshToken)(nil)).Where("user_id = ? AND expires_at < now()", userID).Exec(ctx)

	// 2) enforce max 2 active sessions (non-revoked & not expired)
	var count int
	err := s.db.NewSelect().ColumnExpr("count(*)").Table("refresh_tokens").Where("user_id = ? AND revoked = false AND expires_at > now()", userID).Scan(ctx, &count)
	if err == nil && count >= 2 {
		toRemove := count - 1
		_, _ = s.db.NewDelete().Model((*models.RefreshToken)(nil)).
			Where("id IN (SELECT id FROM refresh_tokens WHERE user_id = ? AND revoked = false AND expires_at > now() ORDER BY created_at ASC LIMIT ?)", userID, toRemove).
			Exec(ctx)
	}

	hashed := auth.HashToken(refreshToken)
	rt := models.RefreshToken{
		UserID:     userID,
		JTI:        jti,
		TokenHash:  hashed,
		DeviceInfo: &deviceInfo,
		Revoked:    false,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
	_, err = s.db.NewInsert().Model(&rt).Exec(ctx)
	return err
}

// Refresh verifies the refresh JWT, finds the stored record by JTI and hash,
// and rotates it for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, deviceInfo string) (*auth.TokenPair, error) {
	claims, err := s.jwt.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if claims["typ"] != string(auth.RefreshToken) {
		return nil, fmt.Errorf("not a refresh token")
	}
	jti, ok := claims["jti"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token jti")
	}

	hashed := auth.HashToken(refreshToken)

	var rt models.RefreshToken
	err = s.db.NewSelect().Model(&rt).Where("jti = ? AND token_hash = ? AND revoked = false AND expires_at > now()", jti, hashed).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh token not found or revoked")
	}

	var u models.User
	err = s.db.NewSelect().Model(&u).Where("id = ?", rt.UserID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if !u.IsActive {
		return nil, fmt.Errorf("user deactivated")
	}

	// rotate: revoke old token, issue and store a new pair
	_, _ = s.db.NewUpdate().Model((*models.RefreshToken)(nil)).Set("revoked = true").Where("id = ?", rt.ID).Exec(ctx)

	return s.issueTokens(ctx, &u, deviceInfo)
}

// Logout revokes a refresh token by its JTI.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.VerifyToken(refreshToken)
	if err != nil {
		return err
	}
	jti, ok := claims["jti"].(string)
	if !ok {
		return fmt.Errorf("invalid jti")
	}
	_, err = s.db.NewUpdate().Model((*models.RefreshToken)(nil)).Set("revoked = true").Where("jti = ?", jti).Exec(ctx)
	return err
}

func (s *AuthService) CheckTokenVersion(ctx context.Context, userID string, tokenVersion int) (bool, error) {
	var user models.User
	err := s.db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return false, err
	}
	return user.TokenVersion == tokenVersion, nil
}
