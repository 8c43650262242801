package models

// JWTClaims holds the identity claims read from a verified access token
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss"`
}
