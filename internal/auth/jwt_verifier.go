package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const workOSJWKSBase = "https://api.workos.com/sso/jwks/"

// Claims are the fields read from a WorkOS access token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// JWTVerifier validates bearer tokens against the identity provider's key set.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// JWKSURL returns override when set, otherwise the WorkOS key set for clientID.
func JWKSURL(clientID, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if clientID == "" {
		return "", errors.New("client id or JWKS URL is required")
	}
	return workOSJWKSBase + clientID, nil
}

// NewJWTVerifier fetches the key set once and keeps it refreshed in the
// background for the life of ctx.
func NewJWTVerifier(ctx context.Context, jwksURL string, issuer string) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("creating JWKS client: %w", err)
	}

	slog.InfoContext(ctx, "JWT verifier initialized", "jwks_url", jwksURL)
	return NewJWTVerifierWithKeyfunc(jwks.Keyfunc, issuer), nil
}

// NewJWTVerifierWithKeyfunc builds a verifier over an existing key lookup.
func NewJWTVerifierWithKeyfunc(kf jwt.Keyfunc, issuer string) *JWTVerifier {
	opts := []jwt.ParserOption{
		// Only asymmetric algorithms; HS256 with a public key is the classic confusion attack.
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{keyfunc: kf, parser: jwt.NewParser(opts...)}
}

func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
