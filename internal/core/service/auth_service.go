package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/metrics"
)

// Claims is the payload of an access token. The subject is the user id; the
// role is informational only since Resolve reloads it from the store.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login, token resolution and role
// management.
type AuthService struct {
	repo             ports.UserRepository
	audit            Recorder
	jwtSecret        string
	tokenTTL         time.Duration
	initAdminEnabled bool
	log              zerolog.Logger
	now              func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithInitAdmin toggles the unauthenticated init-admin operation.
func WithInitAdmin(enabled bool) AuthOption {
	return func(s *AuthService) { s.initAdminEnabled = enabled }
}

func NewAuthService(repo ports.UserRepository, audit Recorder, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	s := &AuthService{
		repo:             repo,
		audit:            audit,
		jwtSecret:        jwtSecret,
		tokenTTL:         tokenTTL,
		initAdminEnabled: true,
		log:              log,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a viewer account for email.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := s.newUser(email, password, domain.RoleViewer)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID, domain.ActionRegisterUser, "Registered user "+user.Email)
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login checks credentials and returns a signed token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, user, nil
}

// Resolve parses token and loads the user it names. The role comes from the
// store, so a role change applies to tokens issued before it.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, subject.String())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidToken
	}
	return user.Identity(), nil
}

// SetRole assigns role to the account registered under email. Only admins
// may call it.
func (s *AuthService) SetRole(ctx context.Context, actor *domain.Identity, email, role string) error {
	if _, err := AuthorizeOperation(actor, OpSetRole); err != nil {
		return err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)
	if err := s.repo.UpdateRole(ctx, email, parsed); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.UserID, domain.ActionSetRole,
		fmt.Sprintf("Set role of %s to %s", email, parsed))
	s.log.Info().Str("email", email).Str("role", string(parsed)).Str("actor", actor.UserID).Msg("role updated")
	return nil
}

// InitAdmin promotes an existing account to admin without an authenticated
// caller. It is recorded under the system actor.
func (s *AuthService) InitAdmin(ctx context.Context, email string) error {
	if !s.initAdminEnabled {
		return domain.ErrInitAdminDisabled
	}

	email = normalizeEmail(email)
	if err := s.repo.UpdateRole(ctx, email, domain.RoleAdmin); err != nil {
		return err
	}

	s.audit.Record(ctx, domain.SystemActor, domain.ActionInitAdmin, "Promoted "+email+" to admin")
	s.log.Warn().Str("email", email).Msg("account promoted to admin via init-admin")
	return nil
}

// EnsureAdmin creates the reserved admin account when no account holds the
// admin role. An existing account registered under email is promoted
// instead. It reports whether anything changed.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, domain.Validation("bootstrap admin email and password are required")
	}

	_, err = s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.UpdateRole(ctx, email, domain.RoleAdmin); err != nil {
			return false, fmt.Errorf("promote bootstrap admin: %w", err)
		}
	case errors.Is(err, domain.ErrUserNotFound):
		user, err := s.newUser(email, password, domain.RoleAdmin)
		if err != nil {
			return false, err
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return false, fmt.Errorf("create bootstrap admin: %w", err)
		}
	default:
		return false, fmt.Errorf("find bootstrap admin: %w", err)
	}

	s.audit.Record(ctx, domain.SystemActor, domain.ActionBootstrapAdmin, "Bootstrapped admin account "+email)
	s.log.Warn().Str("email", email).Msg("bootstrap admin account ensured; rotate its password")
	return true, nil
}

func (s *AuthService) newUser(email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now(),
	}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
