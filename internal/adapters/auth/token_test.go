package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret, "eventhub")

	token, err := issuer.Issue("user-123", "u@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "eventhub", claims.Issuer)
}

func TestJWTVerifier_Verify(t *testing.T) {
	const userID = "6f1c2a3e-9b1d-4c55-8e0a-0d2f7b9c4e11"
	secret := "test-secret"
	verifier := NewJWTVerifier(secret, "eventhub")

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid, err := NewJWTIssuer(secret, "eventhub").Issue(userID, "", time.Hour)
	require.NoError(t, err)
	expired, err := NewJWTIssuer(secret, "eventhub").Issue(userID, "", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := NewJWTIssuer(secret, "someone-else").Issue(userID, "", time.Hour)
	require.NoError(t, err)
	wrongSecret, err := NewJWTIssuer("other-secret", "eventhub").Issue(userID, "", time.Hour)
	require.NoError(t, err)
	notUUID, err := NewJWTIssuer(secret, "eventhub").Issue("user-1", "", time.Hour)
	require.NoError(t, err)
	noExpiry := sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID, Issuer: "eventhub"}}, jwt.SigningMethodHS256, []byte(secret))
	noSubject := sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "eventhub", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}, jwt.SigningMethodHS256, []byte(secret))
	hs512 := sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID, Issuer: "eventhub", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}, jwt.SigningMethodHS512, []byte(secret))

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{name: "valid", token: valid, wantID: userID},
		{name: "expired", token: expired, wantErr: true},
		{name: "other issuer", token: otherIssuer, wantErr: true},
		{name: "wrong secret", token: wrongSecret, wantErr: true},
		{name: "no expiry", token: noExpiry, wantErr: true},
		{name: "no subject", token: noSubject, wantErr: true},
		{name: "subject is not a uuid", token: notUUID, wantErr: true},
		{name: "unexpected algorithm", token: hs512, wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got)
		})
	}
}
