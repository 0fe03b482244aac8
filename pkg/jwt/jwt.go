package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos de visibilidad comercial.
// Prefixes y SeeAllAccounts permiten filtrar por territorio sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string   `json:"user_id"`
	Role           string   `json:"role"` // "admin" | "comercial" | "supervisor"
	Prefixes       []string `json:"prefixes,omitempty"`
	SeeAllAccounts bool     `json:"see_all_accounts,omitempty"`
}

// Identity datos del actor extraídos de un token válido.
type Identity struct {
	UserID         string
	Role           string
	Prefixes       []string
	SeeAllAccounts bool
}

// Generate genera un token JWT firmado. Lo usan los tests y las herramientas internas;
// la emisión real de tokens vive en el servicio de autenticación.
func Generate(secret, issuer string, id Identity, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:         id.UserID,
		Role:           id.Role,
		Prefixes:       id.Prefixes,
		SeeAllAccounts: id.SeeAllAccounts,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad del actor.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return Identity{
		UserID:         claims.UserID,
		Role:           claims.Role,
		Prefixes:       claims.Prefixes,
		SeeAllAccounts: claims.SeeAllAccounts,
	}, nil
}
