package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

// ResolveUser extracts the authenticated user from the bearer token every
// store call is scoped by. Session provisioning itself lives outside this
// service; only HMAC validation and subject extraction happen here.
func ResolveUser(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}
			subject, _ := claims["sub"].(string)
			if subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			c.Set(userIDKey, subject)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}
