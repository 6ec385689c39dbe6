package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/kakao"

	"github.com/minjae/membership/internal/domain"
	"github.com/minjae/membership/internal/provider"
)

const (
	kakaoUserInfoURL  = "https://kapi.kakao.com/v2/user/me"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// Both providers key the subject id under "id" in their user-info payload.
	kakaoUsernameAttribute  = "id"
	googleUsernameAttribute = "id"
)

// AuthConfig holds OAuth and token configuration.
type AuthConfig struct {
	KakaoClientID      string
	KakaoClientSecret  string
	GoogleClientID     string
	GoogleClientSecret string
	JWTSecret          string
	BaseURL            string
}

// AuthService runs federated logins end to end: code exchange, user-info
// fetch, canonical mapping, member resolution, and session token minting.
type AuthService struct {
	mappers   *provider.Registry
	resolver  *MemberResolver
	jwtSecret []byte
	kakao     *oauth2.Config
	google    *oauth2.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(store MemberStore, mappers *provider.Registry, cfg AuthConfig) *AuthService {
	return &AuthService{
		mappers:   mappers,
		resolver:  NewMemberResolver(store),
		jwtSecret: []byte(cfg.JWTSecret),
		kakao: &oauth2.Config{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			Endpoint:     kakao.Endpoint,
			Scopes:       []string{"account_email"},
			RedirectURL:  cfg.BaseURL + "/auth/kakao/callback",
		},
		google: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleOAuth.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
		},
	}
}

// Login resolves a completed external authentication into an authenticated
// principal: map the raw payload to a canonical identity, find or create the
// member, and wrap it with its authorities. Each step's failure aborts the
// login with the originating error kind; nothing is retried here.
func (s *AuthService) Login(ctx context.Context, login domain.ProviderLogin) (*domain.Principal, error) {
	identity, err := s.mappers.Map(login.RegistrationID, login.ExternalID, login.Attributes)
	if err != nil {
		return nil, err
	}

	member, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	return domain.NewPrincipal(member, login.Attributes, login.UsernameAttributeKey), nil
}

// AuthCodeURL returns the provider's authorization URL for the given state.
func (s *AuthService) AuthCodeURL(registrationID, state string) (string, error) {
	cfg, _, err := s.oauthConfig(registrationID)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

// Callback exchanges the authorization code, fetches the provider's user
// info, and runs the login pipeline. On success it returns the principal and
// a fresh session token pair.
func (s *AuthService) Callback(ctx context.Context, registrationID, code string) (*domain.Principal, *TokenPair, error) {
	cfg, usernameAttr, err := s.oauthConfig(registrationID)
	if err != nil {
		return nil, nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%s token exchange: %w", registrationID, err)
	}

	externalID, attributes, err := fetchUserInfo(ctx, registrationID, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s user info: %w", registrationID, err)
	}

	principal, err := s.Login(ctx, domain.ProviderLogin{
		RegistrationID:       registrationID,
		ExternalID:           externalID,
		Attributes:           attributes,
		UsernameAttributeKey: usernameAttr,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.GenerateTokenPair(principal.Member().ID)
	if err != nil {
		return nil, nil, err
	}

	return principal, pair, nil
}

func (s *AuthService) oauthConfig(registrationID string) (*oauth2.Config, string, error) {
	switch domain.ProviderType(strings.ToUpper(registrationID)) {
	case domain.ProviderKakao:
		return s.kakao, kakaoUsernameAttribute, nil
	case domain.ProviderGoogle:
		return s.google, googleUsernameAttribute, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, registrationID)
	}
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GenerateTokenPair mints an HS256 access/refresh token pair for a member.
func (s *AuthService) GenerateTokenPair(memberID int64) (*TokenPair, error) {
	now := time.Now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  memberID,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	})
	accessStr, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  memberID,
		"type": "refresh",
		"iat":  now.Unix(),
		"exp":  now.Add(7 * 24 * time.Hour).Unix(),
	})
	refreshStr, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}

// ValidateToken validates a JWT access token and returns the member ID.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	return s.parseToken(tokenString, "access")
}

// RefreshAccessToken validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	memberID, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	return s.GenerateTokenPair(memberID)
}

func (s *AuthService) parseToken(tokenString, wantType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return 0, domain.ErrUnauthorized
	}

	memberIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, domain.ErrUnauthorized
	}

	return int64(memberIDFloat), nil
}

// fetchUserInfo retrieves the raw user-info payload for a provider and
// extracts the provider-scoped subject id. The payload is kept as a plain map
// so downstream consumers see the provider's attributes verbatim.
func fetchUserInfo(ctx context.Context, registrationID, accessToken string) (string, map[string]any, error) {
	var infoURL string
	switch domain.ProviderType(strings.ToUpper(registrationID)) {
	case domain.ProviderKakao:
		infoURL = kakaoUserInfoURL
	case domain.ProviderGoogle:
		infoURL = googleUserInfoURL
	default:
		return "", nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, registrationID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var attributes map[string]any
	if err := dec.Decode(&attributes); err != nil {
		return "", nil, fmt.Errorf("decode user info: %w", err)
	}

	externalID, err := subjectID(attributes)
	if err != nil {
		return "", nil, err
	}
	return externalID, attributes, nil
}

// subjectID reads the provider's "id" attribute. Kakao returns it as a
// number, Google as a string.
func subjectID(attributes map[string]any) (string, error) {
	switch id := attributes["id"].(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("%w: subject id missing", domain.ErrMalformedPayload)
	}
}
