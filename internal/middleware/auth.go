package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/watchwish/internal/utils"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims JWT 声明（由外部认证服务签发，这里只做校验）
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth 必须登录中间件
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractClaims(c, jwtSecret)
		if err != nil || claims.UserID <= 0 {
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := extractClaims(c, jwtSecret); err == nil && claims.UserID > 0 {
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
		}
		c.Next()
	}
}

// extractClaims 从 Authorization Header 或 Cookie 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	var tokenString string

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	} else if cookie, err := c.Cookie("token"); err == nil {
		tokenString = cookie
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) int {
	if userID, exists := c.Get(ctxUserID); exists {
		return userID.(int)
	}
	return 0
}

// GenerateToken 生成 JWT Token，与认证服务使用相同的签名方式
func GenerateToken(userID int, role, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
