package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds embedded in the "kind" claim.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

var (
	// ErrMalformed is returned when a token cannot be parsed at all.
	ErrMalformed = errors.New("malformed token")
	// ErrInvalidSignature is returned when a token parses but fails
	// signature, issuer, or audience checks.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims holds the JWT claims for both access and refresh tokens.
// Subject carries the principal id; Kind distinguishes the token type.
type Claims struct {
	jwt.RegisteredClaims
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
}

// TokenInfo is the result of verifying a token. Expired is reported as a
// field rather than an error so callers can accept an authentic but expired
// access token as refresh-eligible.
type TokenInfo struct {
	PrincipalID string
	SessionID   string
	Kind        string
	JTI         string
	ExpiresAt   time.Time
	Expired     bool
}

// TokenPair is an access/refresh token pair minted for one principal.
type TokenPair struct {
	AccessToken      string
	AccessJTI        string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshJTI       string
	RefreshExpiresAt time.Time
}

// TokenProvider issues and verifies JWT access and refresh tokens using
// RS256 or ES256. Construct once at process start and share; the key pair is
// never mutated afterwards.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private
// key (RSA or ECDSA). issuer and audience are set on claims and checked on
// verification. accessTTL must not exceed refreshTTL; it is clamped if it does.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	if accessTTL > refreshTTL {
		accessTTL = refreshTTL
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssuePair mints an access and a refresh token for the principal, both
// carrying sessionID so a refresh can locate its session without a token
// lookup. The refresh expiry is never earlier than the access expiry.
func (p *TokenProvider) IssuePair(principalID, sessionID string) (*TokenPair, error) {
	now := time.Now().UTC()
	access, accessJTI, accessExp, err := p.issue(principalID, sessionID, TokenKindAccess, now, p.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshJTI, refreshExp, err := p.issue(principalID, sessionID, TokenKindRefresh, now, p.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessJTI:        accessJTI,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshJTI:       refreshJTI,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess mints a fresh access token for the principal and session.
// Used by the refresh flow, which does not rotate the refresh token.
func (p *TokenProvider) IssueAccess(principalID, sessionID string) (token, jti string, expiresAt time.Time, err error) {
	return p.issue(principalID, sessionID, TokenKindAccess, time.Now().UTC(), p.accessTTL)
}

func (p *TokenProvider) issue(principalID, sessionID, kind string, now time.Time, ttl time.Duration) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   principalID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:      kind,
		SessionID: sessionID,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidSignature
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Verify parses the token and checks signature, issuer, and audience.
// Expiry is evaluated against the embedded exp claim and reported in the
// result; no clock skew tolerance is applied. Returns ErrMalformed for
// unparseable input and ErrInvalidSignature for tampered or foreign tokens.
func (p *TokenProvider) Verify(tokenString string) (*TokenInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidSignature
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrMalformed
		}
		return nil, ErrInvalidSignature
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidSignature
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidSignature
	}
	if claims.Kind != TokenKindAccess && claims.Kind != TokenKindRefresh {
		return nil, ErrInvalidSignature
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &TokenInfo{
		PrincipalID: claims.Subject,
		SessionID:   claims.SessionID,
		Kind:        claims.Kind,
		JTI:         claims.ID,
		ExpiresAt:   expiresAt,
		Expired:     expiresAt.IsZero() || !expiresAt.After(time.Now().UTC()),
	}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
