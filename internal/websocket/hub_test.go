package websocket

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	secret := "test-secret"
	h := NewHub(nil, nil, secret, nil, time.Minute)
	claims := jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name     string
		token    string
		wantUser string
		wantOK   bool
	}{
		{
			name:     "valid HS256 token",
			token:    signedToken(t, jwt.SigningMethodHS256, []byte(secret), claims),
			wantUser: "u1",
			wantOK:   true,
		},
		{
			name:   "unsigned token rejected",
			token:  signedToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims),
			wantOK: false,
		},
		{
			name:   "wrong secret rejected",
			token:  signedToken(t, jwt.SigningMethodHS256, []byte("other-secret"), claims),
			wantOK: false,
		},
		{
			name: "missing user_id rejected",
			token: signedToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantOK: false,
		},
		{
			name:   "missing token rejected",
			token:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/ws"
			if tt.token != "" {
				target += "?token=" + url.QueryEscape(tt.token)
			}
			r := httptest.NewRequest("GET", target, nil)

			userID, ok := h.authenticate(r)
			if ok != tt.wantOK {
				t.Fatalf("authenticate ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && userID != tt.wantUser {
				t.Errorf("authenticate user = %q, want %q", userID, tt.wantUser)
			}
		})
	}
}
