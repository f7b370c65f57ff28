package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextUserID is the context key holding the requester identity.
const ContextUserID = "user_id"


// Auth validates the bearer JWT and injects the requester identity (the sub
// claim) into the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, false)
}

// AuthWithQueryToken behaves like Auth but also accepts ?token=, since
// browsers cannot set headers on a websocket handshake.
func AuthWithQueryToken(jwtSecret string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractToken(c, allowQuery)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			c.Set(ContextUserID, sub)

			return next(c)
		}
	}
}

func extractToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if tok := c.QueryParam("token"); tok != "" {
				return tok, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
