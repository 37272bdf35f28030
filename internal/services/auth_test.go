package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emp-registry/apiserver/internal/services"
	"github.com/emp-registry/apiserver/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newAuthService(t *testing.T) (*services.AuthService, *store.MemoryEmployeeRepository, *testClock) {
	t.Helper()
	repo := store.NewMemoryEmployeeRepository()
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := services.NewAuthService(repo, services.NewPasswordHasher(bcrypt.MinCost), testSecret,
		services.WithClock(clock.Now),
	)
	return svc, repo, clock
}

func validInput() services.EmployeeInput {
	return services.EmployeeInput{
		Name:         "John Doe",
		Email:        "john@example.com",
		Password:     "secret123",
		NationalID12: "123456789012",
		TaxID:        "ABCDE1234F",
	}
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	employee, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, employee.ID)
	assert.Equal(t, "john@example.com", employee.Email)
	assert.NotEqual(t, "secret123", employee.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte("secret123")))

	stored, err := repo.GetByID(ctx, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.PasswordHash, stored.PasswordHash)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	in := validInput()
	in.Email = "  John@Example.COM "
	employee, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", employee.Email)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	again := validInput()
	again.Name = "Someone Else"
	again.Email = "JOHN@example.com"
	_, err = svc.Register(ctx, again)
	require.ErrorIs(t, err, store.ErrDuplicateEmail)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	in := validInput()
	in.NationalID12 = "12345"
	in.TaxID = "abcde1234f"
	_, err := svc.Register(ctx, in)

	verrs, ok := services.AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"nationalId12", "taxId"}, verrs.Fields())
	assert.Equal(t, "invalid nationalId12: must be exactly 12 digits", err.Error())

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _, clock := newAuthService(t)
	ctx := context.Background()

	employee, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	result, err := svc.Login(ctx, "John@Example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, clock.now.Add(time.Hour), result.ExpiresAt)
	assert.Equal(t, services.EmployeeSummary{ID: employee.ID, Name: "John Doe", Email: "john@example.com"}, result.Employee)

	subject, err := svc.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, subject)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "john@example.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "secret123")

	require.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestVerifyHonoursExpiry(t *testing.T) {
	svc, _, clock := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	result, err := svc.Login(ctx, "john@example.com", "secret123")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = svc.Verify(result.Token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.Verify(result.Token)
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestVerifyRejectsForeignAndTamperedTokens(t *testing.T) {
	svc, _, clock := newAuthService(t)
	ctx := context.Background()

	employee, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   employee.ID,
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: employee.ID}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	result, err := svc.Login(ctx, "john@example.com", "secret123")
	require.NoError(t, err)
	parts := strings.Split(result.Token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	for name, token := range map[string]string{
		"foreign secret": foreign,
		"no expiry":      noExpiry,
		"tampered":       tampered,
		"garbage":        "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, services.ErrInvalidToken)
		})
	}
}

func TestWithTokenTTL(t *testing.T) {
	repo := store.NewMemoryEmployeeRepository()
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := services.NewAuthService(repo, services.NewPasswordHasher(bcrypt.MinCost), testSecret,
		services.WithClock(clock.Now),
		services.WithTokenTTL(10*time.Minute),
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	result, err := svc.Login(ctx, "john@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(10*time.Minute), result.ExpiresAt)

	clock.Advance(11 * time.Minute)
	_, err = svc.Verify(result.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
