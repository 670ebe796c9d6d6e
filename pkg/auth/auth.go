package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

type JWTManager struct {
	secretKey string
	tokenTTL  time.Duration
}

func NewJWTManager(secretKey string, tokenTTL time.Duration) *JWTManager {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTManager{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
	}
}

// GenerateToken issues a signed token carrying the user's identity and
// role names.
func (j *JWTManager) GenerateToken(user *models.User, roles []string) (string, error) {
	if j.secretKey == "" {
		return "", fmt.Errorf("JWT secret key is empty")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"roles":    roles,
		"jti":      uuid.New().String(),
		"exp":      time.Now().UTC().Add(j.tokenTTL).Unix(),
		"iat":      time.Now().UTC().Unix(),
	})

	return token.SignedString([]byte(j.secretKey))
}

func (j *JWTManager) ValidateToken(tokenString string) (*models.AuthClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid user_id claim")
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid username claim")
	}

	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid jti claim")
	}

	jti, err := uuid.Parse(jtiStr)
	if err != nil {
		return nil, fmt.Errorf("invalid jti format")
	}

	var roles []string
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if name, ok := r.(string); ok {
				roles = append(roles, name)
			}
		}
	}

	return &models.AuthClaims{
		UserID:   int64(userID),
		Username: username,
		Roles:    roles,
		UUID:     jti,
	}, nil
}
