package auth

import (
	"errors"
	"strings"

	"rentflow-backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"
)

// Roles issued by the rent platform
const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RolePartner  = "partner"
	RoleAdmin    = "admin"
)

// Claims are the fields read from the platform's access token.
// user_id is a number or a string depending on the issuing backend.
type Claims struct {
	UserID   interface{} `json:"user_id"`
	Role     string      `json:"role"`
	UserType string      `json:"user_type"`
	jwt.RegisteredClaims
}

// ID returns the user id as a string, falling back to the subject
func (c *Claims) ID() string {
	if id := cast.ToString(c.UserID); id != "" {
		return id
	}
	return c.Subject
}

// RoleName returns the normalized role, accepting user_type as an alias
func (c *Claims) RoleName() string {
	role := c.Role
	if role == "" {
		role = c.UserType
	}
	return strings.ToLower(strings.TrimSpace(role))
}

// JWTManager validates tokens minted by the rent platform. This service never issues tokens.
type JWTManager struct {
	secret []byte
	issuer string
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{secret: []byte(cfg.JWT.Secret), issuer: cfg.JWT.Issuer}
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, opts...)

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.ID() == "" {
		return nil, errors.New("token has no user id")
	}

	return claims, nil
}
