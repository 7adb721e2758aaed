package localidp

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenUseID      = "id"
	tokenUseRefresh = "refresh"
)

// Claims is the payload of tokens issued by the local identity provider.
type Claims struct {
	Email   string `json:"email"`
	Version int    `json:"ver"`
	Use     string `json:"use"`
	jwt.RegisteredClaims
}

// signer issues and verifies HS256 tokens.
type signer struct {
	key    []byte
	issuer string
}

func (s signer) sign(accountID, email string, version int, use string, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := issuedAt.Add(ttl)
	claims := Claims{
		Email:   email,
		Version: version,
		Use:     use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", use, err)
	}
	return tok, exp, nil
}

func (s signer) parse(raw, use string, now time.Time) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", use, err)
	}
	if claims.Use != use {
		return nil, errors.New("unexpected token use")
	}
	return &claims, nil
}
