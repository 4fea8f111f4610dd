package jwt

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateKeyPair creates a fresh keypair for method and returns it PEM encoded
// (PKCS#8 private key, PKIX public key). bits applies to RSA only.
func GenerateKeyPair(method SigningMethod, bits int) (privatePEM, publicPEM []byte, err error) {
	var priv crypto.Signer
	switch method {
	case MethodRS256, "":
		if bits == 0 {
			bits = minRSAKeyBits
		}
		if bits < minRSAKeyBits {
			return nil, nil, fmt.Errorf("rsa key size %d below minimum %d", bits, minRSAKeyBits)
		}
		priv, err = rsa.GenerateKey(rand.Reader, bits)
	case MethodEd25519:
		_, priv, err = ed25519.GenerateKey(rand.Reader)
	default:
		return nil, nil, errors.New("unsupported signing method")
	}
	if err != nil {
		return nil, nil, err
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, err
	}
	publicPEM, err = encodePublicKeyPEM(priv.Public())
	if err != nil {
		return nil, nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), publicPEM, nil
}

func encodePublicKeyPEM(key crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

func parseRSAPrivateKey(key []byte) (*rsa.PrivateKey, error) {
	parsed, err := jwt.ParseRSAPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid rsa private key")
	}
	if parsed.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("rsa private key too small: %d bits", parsed.N.BitLen())
	}
	return parsed, nil
}

func parseRSAPublicKey(key []byte) (*rsa.PublicKey, error) {
	parsed, err := jwt.ParseRSAPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid rsa public key")
	}
	if parsed.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("rsa public key too small: %d bits", parsed.N.BitLen())
	}
	return parsed, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
