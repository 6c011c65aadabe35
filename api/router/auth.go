package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/fintrack-client/api/client"
)

// claims are carried by sandbox session tokens.
type claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// errSessionExpired is answered with the expiry header so clients clear the session.
var errSessionExpired = status.Error(codes.Unauthenticated, "Session expired. Please sign in again.")

func (s *Sandbox) issueToken(u User) (string, error) {
	now := s.now()
	c := claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// authenticate resolves the caller from the bearer token (or x-session-token).
func (s *Sandbox) authenticate(r *http.Request) (claims, error) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		raw = r.Header.Get(client.HeaderSessionToken)
	}
	if raw == "" {
		return claims{}, status.Error(codes.Unauthenticated, "Missing session token.")
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return claims{}, errSessionExpired
	}
	if err != nil {
		return claims{}, status.Error(codes.Unauthenticated, "Invalid session token.")
	}
	if uid := r.Header.Get(client.HeaderUserID); uid != "" && uid != c.UserID {
		return claims{}, status.Error(codes.Unauthenticated, "Session does not belong to this user.")
	}
	return c, nil
}

func (s *Sandbox) authorizeAdmin(r *http.Request) error {
	if r.Header.Get(client.HeaderAdminSecret) != s.adminSecret {
		return status.Error(codes.PermissionDenied, "Invalid admin secret.")
	}
	return nil
}
