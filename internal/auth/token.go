package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
)

// Signer issues and verifies ES256 tokens: account-recovery tokens and
// device certificates share the same server key.
type Signer struct {
	key    *ecdsa.PrivateKey
	issuer string
}

// NewSigner loads the server signing key from PEM. An empty PEM generates an
// ephemeral key, which only suits development: tokens do not survive restarts.
func NewSigner(pemKey, issuer string) (*Signer, error) {
	if pemKey == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral signing key: %w", err)
		}
		return &Signer{key: key, issuer: issuer}, nil
	}
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return &Signer{key: key, issuer: issuer}, nil
}

// IssueRecoveryToken signs a short-lived token binding an old account id to
// its replacement.
func (s *Signer) IssueRecoveryToken(oldAccountID, newAccountID string, ttl time.Duration) (string, error) {
	if oldAccountID == "" || newAccountID == "" {
		return "", apperror.Validation("both account ids are required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":          s.issuer,
		"sub":          "RecoveryToken",
		"oldAccountId": oldAccountID,
		"newAccountId": newAccountID,
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.key)
	if err != nil {
		return "", apperror.Wrap(apperror.KindProcessing, "failed to sign recovery token", err)
	}
	return signed, nil
}

// VerifyRecoveryToken checks a recovery token and returns the account pair it
// binds. Any token whose subject is not a recovery grant is refused, so a
// device certificate cannot be replayed through the recovery path.
func (s *Signer) VerifyRecoveryToken(token string) (oldAccountID, newAccountID string, err error) {
	claims := jwt.MapClaims{}
	parsed, parseErr := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return &s.key.PublicKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if parseErr != nil || !parsed.Valid {
		return "", "", apperror.Wrap(apperror.KindAuthentication, "invalid recovery token", parseErr)
	}
	if sub, _ := claims["sub"].(string); sub != "RecoveryToken" {
		return "", "", apperror.New(apperror.KindAuthentication, "token is not a recovery token")
	}
	oldAccountID, _ = claims["oldAccountId"].(string)
	newAccountID, _ = claims["newAccountId"].(string)
	if oldAccountID == "" || newAccountID == "" {
		return "", "", apperror.New(apperror.KindAuthentication, "recovery token is missing account ids")
	}
	return oldAccountID, newAccountID, nil
}

// IssueKYCCert signs a certificate attesting that the account passed KYC on
// the device identified by the key thumbprint.
func (s *Signer) IssueKYCCert(accountID, thumbprint string, ttl time.Duration) (string, error) {
	if accountID == "" {
		return "", apperror.Validation("account id is required")
	}
	if thumbprint == "" {
		return "", apperror.Validation("device thumbprint is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       s.issuer,
		"sub":       accountID,
		"deviceKey": thumbprint,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.key)
	if err != nil {
		return "", apperror.Wrap(apperror.KindCertificate, "failed to sign kyc certificate", err)
	}
	return signed, nil
}

// IssueDeviceCert signs a device certificate whose subject is the device key
// thumbprint. Extra authorities become the token's authority list.
func (s *Signer) IssueDeviceCert(thumbprint string, authorities []string, ttl time.Duration) (string, error) {
	if thumbprint == "" {
		return "", apperror.Validation("device thumbprint is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":         s.issuer,
		"sub":         thumbprint,
		"authorities": authorities,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.key)
	if err != nil {
		return "", apperror.Wrap(apperror.KindCertificate, "failed to sign device certificate", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token issued by this signer
// and returns the principal it asserts.
func (s *Signer) Verify(token string) (Principal, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return &s.key.PublicKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, apperror.Wrap(apperror.KindAuthentication, "invalid token", err)
	}

	sub, _ := claims["sub"].(string)
	principal := Principal{Subject: sub}
	if raw, ok := claims["authorities"].([]any); ok {
		for _, a := range raw {
			if name, ok := a.(string); ok {
				principal.Authorities = append(principal.Authorities, name)
			}
		}
	}
	return principal, nil
}
