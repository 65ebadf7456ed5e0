// AuthService handles operator authentication and the lease-scoped
// tokens behind tenant statement links.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store     port.AuthStore
	jwtSecret []byte
	accessTTL time.Duration
	tenantTTL time.Duration
	logger    *zap.Logger
	clock     port.Clock
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, jwtSecret string, accessTTL, tenantTTL time.Duration, logger *zap.Logger, clock port.Clock) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		tenantTTL: tenantTTL,
		logger:    logger,
		clock:     clock,
	}
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email|password", Message: "both are required"}
	}

	cred, err := s.store.GetOperatorByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get operator: %w", err)
	}
	if cred == nil {
		return nil, &domain.ErrUnauthorized{Message: "Credenciales inválidas"}
	}

	now := s.clock.Now()
	if cred.LockedUntil != nil && cred.LockedUntil.After(now) {
		remaining := cred.LockedUntil.Sub(now).Minutes()
		s.logger.Warn("login: account temporarily locked",
			zap.String("user_id", cred.UserID),
			zap.Float64("remaining_minutes", remaining),
		)
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("Cuenta bloqueada temporalmente. Intente de nuevo en %.0f minutos", remaining),
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		newAttempts := cred.FailedAttempts + 1
		updates := map[string]any{"failed_attempts": newAttempts}
		if newAttempts >= maxFailedAttempts {
			updates["locked_until"] = now.Add(lockDuration).Format(time.RFC3339)
			s.logger.Warn("login: account locked after max attempts",
				zap.String("user_id", cred.UserID),
				zap.Int("attempts", newAttempts),
			)
		} else {
			s.logger.Warn("login: failed password attempt",
				zap.String("user_id", cred.UserID),
				zap.Int("attempts", newAttempts),
				zap.Int("max", maxFailedAttempts),
			)
		}
		_ = s.store.UpdateOperator(ctx, cred.UserID, updates)
		return nil, &domain.ErrUnauthorized{Message: "Credenciales inválidas"}
	}

	_ = s.store.UpdateOperator(ctx, cred.UserID, map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now.Format(time.RFC3339),
	})

	accessToken, err := s.signToken(cred.UserID, "", tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("operator logged in", zap.String("user_id", cred.UserID))

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		UserID:      cred.UserID,
		Name:        cred.Name,
	}, nil
}

// ============================================================
// Tenant statement links
// ============================================================

// IssueTenantLink mints a lease-scoped token a tenant can use to read
// that one lease's statement. The holder of the link needs no account.
func (s *AuthService) IssueTenantLink(ctx context.Context, leaseID string) (*domain.TenantLink, error) {
	_, span := authTracer.Start(ctx, "AuthService.IssueTenantLink")
	defer span.End()

	if leaseID == "" {
		return nil, &domain.ErrValidation{Field: "lease_id", Message: "required"}
	}
	token, err := s.signToken("", leaseID, tokenTypeTenant, s.tenantTTL)
	if err != nil {
		return nil, fmt.Errorf("sign tenant token: %w", err)
	}
	return &domain.TenantLink{
		LeaseID:   leaseID,
		Token:     token,
		ExpiresIn: int(s.tenantTTL.Seconds()),
	}, nil
}

// ============================================================
// Token validation — used by middleware
// ============================================================

const (
	tokenTypeAccess = "access"
	tokenTypeTenant = "tenant"
)

// JWTClaims represents the custom claims in issued tokens. LeaseID is
// only set on tenant tokens, Sub only on operator tokens.
type JWTClaims struct {
	Sub     string `json:"sub,omitempty"`
	LeaseID string `json:"lease_id,omitempty"`
	Type    string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken checks an operator bearer token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	return claims, nil
}

// ValidateTenantToken checks a lease-scoped statement-link token.
func (s *AuthService) ValidateTenantToken(tokenString string) (*JWTClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeTenant || claims.LeaseID == "" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	return claims, nil
}

func (s *AuthService) parseToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	return claims, nil
}

func (s *AuthService) signToken(sub, leaseID, tokenType string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := JWTClaims{
		Sub:     sub,
		LeaseID: leaseID,
		Type:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "rentas-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
