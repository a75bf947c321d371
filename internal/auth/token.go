package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Principal holds identity extracted from a validated token.
type Principal struct {
	UserID   string
	UserType string
	Roles    []string
	Claims   jwt.MapClaims
}

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingID    = errors.New("missing _id claim")
	ErrEmptySecret  = errors.New("token secret is empty")
)

// DefaultTokenTTL is the session lifetime of an employee token.
const DefaultTokenTTL = 72 * time.Hour

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	ParseAndVerifyToken(tokenString string) (*Principal, error)
}

// TokenManager mints and verifies HS256 session tokens for employees.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token carrying the employee id and user type.
func (m *TokenManager) Issue(employeeID, userType string) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"_id":      employeeID,
		"userType": userType,
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseAndVerifyToken verifies signature and expiry and returns the Principal.
// The user type doubles as the single role used for permission checks.
func (m *TokenManager) ParseAndVerifyToken(tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrNoToken
	}

	parser := jwt.Parser{}
	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(m.now().Unix(), true) {
		return nil, ErrInvalidToken
	}

	id, _ := claims["_id"].(string)
	if id == "" {
		return nil, ErrMissingID
	}
	userType, _ := claims["userType"].(string)

	var roles []string
	if userType != "" {
		roles = []string{userType}
	}

	return &Principal{
		UserID:   id,
		UserType: userType,
		Roles:    roles,
		Claims:   claims,
	}, nil
}

var _ TokenVerifier = (*TokenManager)(nil)
