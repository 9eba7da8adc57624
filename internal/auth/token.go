package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified content of an access token.
type Claims struct {
	APIKey    string
	Tier      string
	Scope     string
	ExpiresAt time.Time
}

// Token is the issuance response shape.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// TokenService mints and verifies bearer tokens for API keys. The tier and
// scope embedded in a token come from the key directory at issuance time.
type TokenService struct {
	directory KeyDirectory
	secret    []byte
	method    jwt.SigningMethod
	ttl       time.Duration
}

// NewTokenService builds a service signing with the named HMAC algorithm.
// An unrecognized name falls back to HS256; config validation rejects it
// before we get here.
func NewTokenService(directory KeyDirectory, secret, algorithm string, ttlMinutes int) *TokenService {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}
	return &TokenService{
		directory: directory,
		secret:    []byte(secret),
		method:    method,
		ttl:       time.Duration(ttlMinutes) * time.Minute,
	}
}

// Issue looks the API key up in the directory and mints a signed token
// carrying its tier and scope.
func (s *TokenService) Issue(ctx context.Context, apiKey string) (Token, error) {
	info, err := s.directory.Lookup(ctx, apiKey)
	if err != nil {
		return Token{}, err
	}

	now := time.Now()
	token := jwt.NewWithClaims(s.method, jwt.MapClaims{
		"api_key": apiKey,
		"tier":    info.Tier,
		"scope":   info.Scope,
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return Token{}, apierror.Wrap(apierror.KindAuthentication,
			"Failed to create access token", err)
	}

	return Token{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		Scope:       info.Scope,
	}, nil
}

// Verify checks the signature and expiry and returns the embedded claims.
// A token missing api_key, tier or scope is rejected outright rather than
// defaulted.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, apierror.Wrap(apierror.KindAuthentication,
			"Invalid or expired token", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, apierror.New(apierror.KindAuthentication, "Invalid token claims")
	}

	apiKey, _ := mapClaims["api_key"].(string)
	tier, _ := mapClaims["tier"].(string)
	scope, _ := mapClaims["scope"].(string)
	if apiKey == "" || tier == "" || scope == "" {
		return Claims{}, apierror.New(apierror.KindAuthentication, "Invalid token contents")
	}

	expiry, err := mapClaims.GetExpirationTime()
	if err != nil || expiry == nil {
		return Claims{}, apierror.New(apierror.KindAuthentication, "Invalid token contents")
	}

	return Claims{
		APIKey:    apiKey,
		Tier:      tier,
		Scope:     scope,
		ExpiresAt: expiry.Time,
	}, nil
}
