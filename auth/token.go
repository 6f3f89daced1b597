package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "cryptochat"

// CustomClaims defines the structure of the data stored inside the JWT.
// The subject is the UUID of the node that issued the token.
type CustomClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks UI session tokens with the node's persisted secret.
type TokenIssuer struct {
	key      []byte
	subject  string
	duration time.Duration
}

func NewTokenIssuer(key []byte, subject string, duration time.Duration) TokenIssuer {
	return TokenIssuer{key: key, subject: subject, duration: duration}
}

// GenerateToken creates a signed JWT for the local UI.
func (t TokenIssuer) GenerateToken() (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Scope: "ui",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// ValidateToken parses and validates the signature, issuer, subject and expiration of a JWT string.
func (t TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(t.subject),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
