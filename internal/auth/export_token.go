package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"faceguard/internal/types"
)

var (
	ErrInvalidExportToken = errors.New("auth: invalid export token")
	ErrExportTokenExpired = errors.New("auth: export token has expired")
)

// exportClaims binds a signed token to exactly one export request
// scoping an export to a specific video and blur spec.
type exportClaims struct {
	VideoID          string `json:"videoId"`
	TrackFingerprint string `json:"trackFingerprint"`
	jwt.RegisteredClaims
}

// ExportTokenIssuer signs and verifies export tokens: same HS256/golang-jwt/v5
// mechanics as a login-token issuer, but a different claim set and a much
// shorter default lifetime (an export token scopes one re-fetch of
// already-computed output, not a login session).
type ExportTokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
}

// NewExportTokenIssuer builds an issuer. An empty secret generates a
// random one (dev-mode only, mirroring a login-token issuer's
// fallback) — tokens then only validate within this process's lifetime.
func NewExportTokenIssuer(secret string, ttl time.Duration) *ExportTokenIssuer {
	if secret == "" {
		random := make([]byte, 32)
		_, _ = rand.Read(random)
		secret = hex.EncodeToString(random)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ExportTokenIssuer{secretKey: []byte(secret), ttl: ttl}
}

// Fingerprint canonicalizes the parts of an ExportSpec a token must be
// scoped to, so a token minted for one spec cannot be replayed against a
// different one.
func Fingerprint(spec types.ExportSpec) string {
	ids := append([]uint32(nil), spec.SelectedTrackIDs...)
	canonical := struct {
		IDs        []uint32 `json:"ids"`
		Padding    float64  `json:"padding"`
		BlurAmount int      `json:"blurAmount"`
		SampleRate int      `json:"sampleRate"`
	}{ids, spec.Padding, spec.BlurAmount, spec.SampleRate}

	b, _ := json.Marshal(canonical)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// IssueExportToken signs a token scoped to videoID and spec's fingerprint,
// valid for the issuer's configured TTL.
func (i *ExportTokenIssuer) IssueExportToken(videoID string, spec types.ExportSpec) (string, error) {
	claims := &exportClaims{
		VideoID:          videoID,
		TrackFingerprint: Fingerprint(spec),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "faceguard",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign export token: %w", err)
	}
	return signed, nil
}

// VerifyExportToken checks that tokenString is a valid, unexpired token
// scoped to exactly videoID and spec.
func (i *ExportTokenIssuer) VerifyExportToken(tokenString, videoID string, spec types.ExportSpec) error {
	token, err := jwt.ParseWithClaims(tokenString, &exportClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidExportToken
		}
		return i.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExportTokenExpired
		}
		return ErrInvalidExportToken
	}

	claims, ok := token.Claims.(*exportClaims)
	if !ok || !token.Valid {
		return ErrInvalidExportToken
	}
	if claims.VideoID != videoID || claims.TrackFingerprint != Fingerprint(spec) {
		return ErrInvalidExportToken
	}
	return nil
}
