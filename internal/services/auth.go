package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emp-registry/apiserver/internal/logging"
	"github.com/emp-registry/apiserver/internal/metrics"
	"github.com/emp-registry/apiserver/internal/store"
	"github.com/emp-registry/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = time.Hour

// EmployeeSummary is the identity returned alongside a login token.
type EmployeeSummary struct {
	ID    string
	Name  string
	Email string
}

// LoginResult carries a signed bearer token and the authenticated employee.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  EmployeeSummary
}

// AuthService registers employees, verifies credentials and issues/validates tokens.
type AuthService struct {
	repo     EmployeeRepository
	hasher   *PasswordHasher
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type AuthOption func(s *AuthService)

func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source used for issuing and checking tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

func WithAuthMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

func NewAuthService(repo EmployeeRepository, hasher *PasswordHasher, jwtSecret string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:     repo,
		hasher:   hasher,
		secret:   []byte(jwtSecret),
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and stores a new employee. The returned record still
// carries the password hash; callers map it before responding.
func (s *AuthService) Register(ctx context.Context, in EmployeeInput) (types.Employee, error) {
	in = in.Normalize()
	if errs := ValidateEmployee(in); errs != nil {
		return types.Employee{}, errs
	}

	employee, err := insertEmployee(ctx, s.repo, s.hasher, in)
	if err != nil {
		return types.Employee{}, err
	}

	s.metrics.IncrementEmployeesCreated()
	s.logger.InfoContext(ctx, "employee registered", slog.String("employee_id", employee.ID))
	return employee, nil
}

// Login checks credentials and issues a bearer token for the employee.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)

	employee, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Burn(password)
			s.metrics.ObserveLogin(metrics.LoginRejected)
			s.logger.InfoContext(ctx, "login rejected", slog.String("reason", "unknown email"))
			return LoginResult{}, ErrInvalidCredentials
		}
		s.metrics.ObserveLogin(metrics.LoginFailed)
		return LoginResult{}, fmt.Errorf("lookup employee: %w", err)
	}

	if !s.hasher.Matches(employee.PasswordHash, password) {
		s.metrics.ObserveLogin(metrics.LoginRejected)
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("reason", "password mismatch"),
			slog.String("employee_id", employee.ID),
		)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(employee.ID)
	if err != nil {
		s.metrics.ObserveLogin(metrics.LoginFailed)
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.ObserveLogin(metrics.LoginSucceeded)
	s.logger.InfoContext(ctx, "login succeeded", slog.String("employee_id", employee.ID))
	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Employee: EmployeeSummary{
			ID:    employee.ID,
			Name:  employee.Name,
			Email: employee.Email,
		},
	}, nil
}

// Verify validates a bearer token and returns the employee id it was issued for.
func (s *AuthService) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		s.metrics.ObserveTokenRejected(reason)
		s.logger.Debug("token rejected", slog.String("reason", reason), slog.String("error", err.Error()))
		return "", ErrInvalidToken
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		s.metrics.ObserveTokenRejected("invalid")
		s.logger.Debug("token rejected", slog.String("reason", "missing subject"))
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *AuthService) issueToken(employeeID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   employeeID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// insertEmployee hashes the password and persists an already validated record.
func insertEmployee(ctx context.Context, repo EmployeeRepository, hasher *PasswordHasher, in EmployeeInput) (types.Employee, error) {
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return types.Employee{}, store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Employee{}, fmt.Errorf("check email: %w", err)
	}

	hashed, err := hasher.Hash(in.Password)
	if err != nil {
		return types.Employee{}, fmt.Errorf("hash password: %w", err)
	}

	employee, err := repo.Create(ctx, types.Employee{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
		NationalID12: in.NationalID12,
		TaxID:        in.TaxID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.Employee{}, err
		}
		return types.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}
