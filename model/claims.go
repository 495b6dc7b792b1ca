package model

import "github.com/golang-jwt/jwt/v5"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// AppClaims is the identity carried by bearer tokens. Tokens are issued elsewhere.
type AppClaims struct {
	CustomerID int64  `json:"customer_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}
