package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api"
	"reviewflow/internal/domain"
)

// UserKey - ключ текущего пользователя в gin.Context
const UserKey = "user"

// Claims - содержимое токена, выданного провайдером идентификации
type Claims struct {
	Username     string   `json:"username"`
	Email        string   `json:"email,omitempty"`
	Superuser    bool     `json:"superuser,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет Bearer JWT (HS256) и кладёт domain.User в контекст.
// Запрос без заголовка получает анонимного пользователя.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(UserKey, &domain.User{})
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		user, err := ParseToken(parts[1], secret)
		if err != nil {
			log.Warn().
				Err(err).
				Str("request_id", c.GetString(RequestIDKey)).
				Str("layer", "middleware").
				Msg("rejected token")
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// ParseToken проверяет подпись и переводит claims в domain.User
func ParseToken(tokenString, secret string) (*domain.User, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("subject must be a positive user id")
	}

	user := &domain.User{
		ID:            id,
		Username:      claims.Username,
		Email:         claims.Email,
		Authenticated: true,
		Superuser:     claims.Superuser,
		Capabilities:  make([]domain.Capability, 0, len(claims.Capabilities)),
	}
	for _, capability := range claims.Capabilities {
		user.Capabilities = append(user.Capabilities, domain.Capability(capability))
	}
	return user, nil
}

// IssueToken подписывает токен для пользователя (CLI и тесты)
func IssueToken(user *domain.User, secret string) (string, error) {
	claims := Claims{
		Username:  user.Username,
		Email:     user.Email,
		Superuser: user.Superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(user.ID, 10),
		},
	}
	for _, capability := range user.Capabilities {
		claims.Capabilities = append(claims.Capabilities, string(capability))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireUser пропускает только аутентифицированных пользователей
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).Authenticated {
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя запроса
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return &domain.User{}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
		Error: api.Error{
			Code:    api.ErrCodeUnauthorized,
			Message: message,
		},
	})
}
