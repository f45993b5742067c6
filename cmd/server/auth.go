package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aetherdb/aetherdb/core"
)

// AuthConfig configures token issuing and validation.
type AuthConfig struct {
	// JWTSecret is the shared secret for HS256 signing and validation.
	JWTSecret string

	// Issuer is stamped into issued tokens and required on validation
	// when set.
	Issuer string

	// TokenTTL bounds the lifetime of issued tokens. Zero means one
	// hour.
	TokenTTL time.Duration
}

func (c *AuthConfig) ttl() time.Duration {
	if c.TokenTTL <= 0 {
		return time.Hour
	}
	return c.TokenTTL
}

// ConnectionState tracks per-connection authentication.
type ConnectionState struct {
	identity      *core.Identity
	authenticated bool
	tokenExpiry   time.Time
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

// issueToken signs an HS256 token for an already-verified user.
func (s *Server) issueToken(username string) (string, time.Time, error) {
	if s.authConfig == nil || s.authConfig.JWTSecret == "" {
		return "", time.Time{}, errors.New("no JWT secret configured")
	}

	expiresAt := time.Now().Add(s.authConfig.ttl())
	claims := jwt.MapClaims{
		"sub": username,
		"exp": jwt.NewNumericDate(expiresAt),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	if s.authConfig.Issuer != "" {
		claims["iss"] = s.authConfig.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

type authResult struct {
	identity  core.Identity
	expiresAt time.Time
	err       error
}

// validateJWT checks an HS256 token and extracts the username from the
// sub claim.
func (s *Server) validateJWT(tokenString string) authResult {
	if s.authConfig == nil || s.authConfig.JWTSecret == "" {
		return authResult{err: errors.New("authentication not configured")}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return authResult{err: fmt.Errorf("invalid token: %w", err)}
	}
	if !token.Valid {
		return authResult{err: errors.New("invalid token")}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authResult{err: errors.New("invalid token claims")}
	}

	if s.authConfig.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != s.authConfig.Issuer {
			return authResult{err: fmt.Errorf("invalid issuer: expected %s, got %s", s.authConfig.Issuer, issuer)}
		}
	}

	username, _ := claims["sub"].(string)
	if username == "" {
		return authResult{err: errors.New("token missing sub claim")}
	}

	// The token proves who signed in, but the account must still exist.
	if _, err := s.instance.Users.RoleOf(username); err != nil {
		return authResult{err: fmt.Errorf("unknown token subject: %w", err)}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return authResult{
		identity:  core.Identity{Username: username},
		expiresAt: expiresAt,
	}
}

// handleLogin processes LOGIN <username> <password>, verifying the
// credentials and answering with a token.
func (s *Server) handleLogin(line string, state *ConnectionState) Response {
	parts := strings.Fields(line)
	if len(parts) < 2 || len(parts) > 3 {
		return errorResponse("auth", errors.New("expected LOGIN <username> [password]"))
	}
	username := parts[1]
	password := ""
	if len(parts) == 3 {
		password = parts[2]
	}

	identity, err := s.instance.Users.Authenticate(username, password)
	if err != nil {
		return errorResponse("auth", err)
	}

	token, expiresAt, err := s.issueToken(username)
	if err != nil {
		return errorResponse("auth", err)
	}

	state.identity = &identity
	state.authenticated = true
	state.tokenExpiry = expiresAt

	data, _ := json.Marshal(AuthResponse{
		Authenticated: true,
		Username:      username,
		Token:         token,
		ExpiresIn:     int(time.Until(expiresAt).Seconds()),
	})
	return Response{Success: true, Type: "auth", Result: data}
}

// handleAuth processes AUTH JWT <token>, binding the connection to the
// token's subject.
func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.EqualFold(parts[1], "JWT") {
		return errorResponse("auth", errors.New("expected AUTH JWT <token>"))
	}

	result := s.validateJWT(parts[2])
	if result.err != nil {
		return errorResponse("auth", result.err)
	}

	state.identity = &result.identity
	state.authenticated = true
	state.tokenExpiry = result.expiresAt

	ar := AuthResponse{Authenticated: true, Username: result.identity.Username}
	if !result.expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(result.expiresAt).Seconds())
	}
	data, _ := json.Marshal(ar)
	return Response{Success: true, Type: "auth", Result: data}
}
