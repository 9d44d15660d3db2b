package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

// TokenConfig configures access token issuance.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TokenSubject is the principal a token is issued for.
type TokenSubject struct {
	ID                 string
	Username           string
	Kind               models.PrincipalKind
	StaffRole          models.StaffRole
	MustChangePassword bool
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService constructs a TokenService using the wall clock.
func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	return &TokenService{secret: []byte(cfg.Secret), expiry: cfg.Expiry, issuer: cfg.Issuer, now: time.Now}
}

// WithClock replaces the clock used for issuing and verifying tokens.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Expiry returns the token lifetime.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Issue signs a token for subject and returns it with its expiry.
func (s *TokenService) Issue(subject TokenSubject) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.expiry)
	claims := &models.JWTClaims{
		UserID:             subject.ID,
		Username:           subject.Username,
		Role:               subject.Kind,
		MustChangePassword: subject.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	if subject.Kind == models.PrincipalStaff {
		claims.StaffRole = subject.StaffRole
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return signed, expiresAt, nil
}

// Verify parses tokenString. Every failure, whether signature, structure, algorithm or expiry,
// yields the same INVALID_TOKEN error.
func (s *TokenService) Verify(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, invalidToken(err)
	}
	if !token.Valid || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, invalidToken(errors.New("inconsistent subject claims"))
	}
	switch claims.Role {
	case models.PrincipalStaff:
		if !claims.StaffRole.Valid() {
			return nil, invalidToken(errors.New("unknown staff role"))
		}
	case models.PrincipalLearner:
		if claims.StaffRole != "" {
			return nil, invalidToken(errors.New("learner token carries staff role"))
		}
	default:
		return nil, invalidToken(errors.New("unknown principal kind"))
	}
	return claims, nil
}

func invalidToken(cause error) error {
	return appErrors.Wrap(cause, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
}
