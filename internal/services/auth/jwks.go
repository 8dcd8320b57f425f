package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnauthorized       = errors.New("unauthorized - not an operator")
	ErrJWKSFetch          = errors.New("failed to fetch JWKS")
)

// Claims are the Supabase access token claims the CMS reads
type Claims struct {
	Sub         string      `json:"sub"`
	Email       string      `json:"email"`
	Role        string      `json:"role"` // "authenticated" for signed-in users
	AppMetadata AppMetadata `json:"app_metadata"`

	jwt.RegisteredClaims
}

// AppMetadata holds operator-controlled user metadata
type AppMetadata struct {
	Role string `json:"role"`
}

// IsAdmin reports whether the user carries the admin app role
func (c *Claims) IsAdmin() bool {
	return c.AppMetadata.Role == "admin"
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Service validates Supabase access tokens against the project's JWKS
type Service struct {
	jwksURL    string
	httpClient *http.Client

	keys          map[string]*ecdsa.PublicKey
	keysMutex     sync.RWMutex
	lastFetch     time.Time
	cacheDuration time.Duration
	minRefresh    time.Duration

	adminEmails    map[string]bool
	devAuthEnabled bool
	devAuthToken   string
}

// Option configures the auth service
type Option func(*Service)

// WithHTTPClient sets the client used to fetch the key set
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithAdminEmails restricts the admin surface to the listed addresses; admins by app role always pass
func WithAdminEmails(emails ...string) Option {
	return func(s *Service) {
		for _, email := range emails {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				s.adminEmails[email] = true
			}
		}
	}
}

// NewService fetches the key set once and returns a validator
func NewService(jwksURL string, opts ...Option) (*Service, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}

	service := &Service{
		jwksURL:       jwksURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		keys:          make(map[string]*ecdsa.PublicKey),
		cacheDuration: time.Hour,
		minRefresh:    time.Minute,
		adminEmails:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(service)
	}

	if err := service.fetchJWKS(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	return service, nil
}

// SetDevAuth configures the development bypass token
func (s *Service) SetDevAuth(enabled bool, token string) {
	s.devAuthEnabled = enabled
	s.devAuthToken = token
	if enabled {
		log.Printf("[WARN] Development auth bypass is enabled")
	}
}

func (s *Service) fetchJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: endpoint returned status %d", ErrJWKSFetch, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*ecdsa.PublicKey)
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "EC" || jwk.Alg != "ES256" {
			continue
		}
		pubKey, err := parseECKey(jwk)
		if err != nil {
			log.Printf("[WARN] Skipping JWK %s: %v", jwk.Kid, err)
			continue
		}
		keys[jwk.Kid] = pubKey
	}

	s.keysMutex.Lock()
	s.keys = keys
	s.lastFetch = time.Now()
	s.keysMutex.Unlock()

	log.Printf("[DEBUG] Loaded %d signing key(s) from JWKS", len(keys))
	return nil
}

func parseECKey(jwk JWK) (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode X coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// getPublicKey looks up kid, refreshing a stale set or one missing the key at most once per minRefresh
func (s *Service) getPublicKey(kid string) (*ecdsa.PublicKey, error) {
	s.keysMutex.RLock()
	key, exists := s.keys[kid]
	age := time.Since(s.lastFetch)
	s.keysMutex.RUnlock()

	if (!exists && age > s.minRefresh) || age > s.cacheDuration {
		if err := s.fetchJWKS(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}

		s.keysMutex.RLock()
		key, exists = s.keys[kid]
		s.keysMutex.RUnlock()
	}

	if !exists {
		return nil, fmt.Errorf("key with id %s not found", kid)
	}
	return key, nil
}

// ValidateToken checks the signature and expiry of a Supabase access token and that the user may operate the CMS
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if s.devAuthEnabled && s.devAuthToken != "" &&
		subtle.ConstantTimeCompare([]byte(tokenString), []byte(s.devAuthToken)) == 1 {
		return s.GetDevClaims(), nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("no kid found in token header")
		}
		return s.getPublicKey(kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != "authenticated" {
		return nil, ErrUnauthorized
	}
	if !s.isOperator(claims) {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) isOperator(claims *Claims) bool {
	if len(s.adminEmails) == 0 || claims.IsAdmin() {
		return true
	}
	return s.adminEmails[strings.ToLower(claims.Email)]
}

// GetDevClaims returns fixed claims for the development bypass
func (s *Service) GetDevClaims() *Claims {
	return DevClaims()
}

// DevClaims are the claims of the development operator
func DevClaims() *Claims {
	now := time.Now()
	return &Claims{
		Sub:         "dev-user-001",
		Email:       "dev@stoop.local",
		Role:        "authenticated",
		AppMetadata: AppMetadata{Role: "admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(365 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

// UserInfo is what /me returns
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetUserInfo extracts user info from claims
func GetUserInfo(claims *Claims) *UserInfo {
	role := claims.AppMetadata.Role
	if role == "" {
		role = "operator"
	}
	return &UserInfo{
		ID:    claims.Sub,
		Email: claims.Email,
		Role:  role,
	}
}
