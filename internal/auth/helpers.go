package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/config"
	"CampusPortal/internal/rbac"
)

// ContextKey is where the JWT middleware stores the verified *JWTClaims.
const ContextKey = "user"

const issuer = "smart-campus-portal"

type JWTClaims struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"` // needed by the role gate on every protected route
	jwt.RegisteredClaims
}

// Principal converts verified claims into a caller identity. The subject
// carries the user id.
func (c *JWTClaims) Principal() (rbac.Principal, error) {
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return rbac.Principal{}, errors.New("invalid token subject")
	}
	if !c.Role.Valid() {
		return rbac.Principal{}, errors.New("invalid token role")
	}
	return rbac.Principal{ID: id, Name: c.Name, Email: c.Email, Role: c.Role}, nil
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{key: cfg.JWTKey, ttl: cfg.JWTTTL, now: time.Now}
}

func (m *TokenManager) GenerateJWT(user *User) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

func (m *TokenManager) ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// PrincipalFrom returns the caller stored on c by the JWT middleware.
func PrincipalFrom(c echo.Context) (rbac.Principal, error) {
	claims, ok := c.Get(ContextKey).(*JWTClaims)
	if !ok || claims == nil {
		return rbac.Principal{}, apperr.Unauthorized("Authentication required")
	}
	p, err := claims.Principal()
	if err != nil {
		return rbac.Principal{}, apperr.Unauthorized("Invalid token")
	}
	return p, nil
}
