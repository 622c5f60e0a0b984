package entities

import "github.com/golang-jwt/jwt/v4"

// ServiceClaims are the claims carried by an inter-service token.
type ServiceClaims struct {
	jwt.RegisteredClaims
	// Name of the calling service.
	Service string `json:"service"`
}
