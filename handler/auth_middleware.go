package handler

import (
	"context"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	CustomerIDKey contextKey = "customerID"
	RoleKey       contextKey = "role"
)

// AuthMiddleware verifies the bearer token and puts the caller's customer id and
// role into the request context. Tokens are issued by the identity service.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil).Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil).Send(w)
				return
			}

			claims := &model.AppClaims{}
			token, err := jwt.ParseWithClaims(headerParts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err).Send(w)
				return
			}
			if claims.CustomerID == 0 && claims.Role != string(model.RoleAdmin) {
				common.NewAppError(http.StatusUnauthorized, "Token carries no customer", nil).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), CustomerIDKey, claims.CustomerID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(RoleKey).(string)
		if !ok || role != string(model.RoleAdmin) {
			common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerID(r *http.Request) (int64, *common.AppError) {
	id, ok := r.Context().Value(CustomerIDKey).(int64)
	if !ok {
		return 0, common.NewAppError(http.StatusUnauthorized, "Invalid customer ID in token", nil)
	}
	return id, nil
}
