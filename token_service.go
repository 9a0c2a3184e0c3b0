package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService mints and validates the signed tokens the rest of the package
// deals with as opaque strings.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(token string) (AuthClaims, error)
}

type jwtTokenService struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
	expiration    time.Duration
}

// NewTokenService builds the HMAC token service from config.
func NewTokenService(cfg Config) TokenService {
	method := jwt.GetSigningMethod(cfg.GetSigningMethod())
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	return &jwtTokenService{
		signingKey:    []byte(cfg.GetSigningKey()),
		signingMethod: method,
		issuer:        cfg.GetIssuer(),
		audience:      cfg.GetAudience(),
		expiration:    time.Hour * time.Duration(cfg.GetTokenExpiration()),
	}
}

// Generate mints a token for the given identity with the configured lifetime.
func (s *jwtTokenService) Generate(identity Identity) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity.ID(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings(s.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
		UID:      identity.ID(),
		UserRole: UserRole(identity.Role()),
	}
	return s.SignClaims(claims)
}

// SignClaims signs an explicit claim set. Callers use it when they need full
// control over the registered claims, tests in particular.
func (s *jwtTokenService) SignClaims(claims *JWTClaims) (string, error) {
	token := jwt.NewWithClaims(s.signingMethod, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate parses and verifies a signed token, returning its claims.
func (s *jwtTokenService) Validate(raw string) (AuthClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.signingMethod.Alg() {
			return nil, errors.New("unexpected signing method", errors.CategoryAuth).
				WithMetadata(map[string]any{"alg": t.Method.Alg()})
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{s.signingMethod.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, errors.CategoryAuth, "invalid token").
			WithTextCode(TextCodeTokenMalformed).
			WithCode(errors.CodeUnauthorized)
	}

	return claims, nil
}
