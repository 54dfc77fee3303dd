package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACValidator_RoundTrip(t *testing.T) {
	v := NewHMACValidator("s3cret", "cognate")

	token, err := v.IssueToken("alice", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	require.NoError(t, err)

	claims, err := v.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Sub)
	assert.Equal(t, "cognate", claims.Iss)
	assert.NotZero(t, claims.Exp)
}

func TestHMACValidator_Rejects(t *testing.T) {
	v := NewHMACValidator("s3cret", "cognate")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "expired",
			token: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "a", Issuer: "cognate", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}),
			want:  ErrTokenExpired,
		},
		{
			name:  "wrong secret",
			token: sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "a", Issuer: "cognate", ExpiresAt: future}),
			want:  ErrInvalidToken,
		},
		{
			name:  "wrong issuer",
			token: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "a", Issuer: "elsewhere", ExpiresAt: future}),
			want:  ErrInvalidToken,
		},
		{
			name:  "no expiry",
			token: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "a", Issuer: "cognate"}),
			want:  ErrInvalidToken,
		},
		{
			name:  "missing subject",
			token: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Issuer: "cognate", ExpiresAt: future}),
			want:  ErrInvalidToken,
		},
		{
			name:  "unsigned",
			token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "a", Issuer: "cognate", ExpiresAt: future}),
			want:  ErrInvalidToken,
		},
		{
			name:  "garbage",
			token: "not.a.token",
			want:  ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.ValidateToken(context.Background(), tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
