package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePrivateKey_InlinePEM(t *testing.T) {
	key, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if key == nil {
		t.Fatal("ParsePrivateKey returned nil key")
	}
	if err := key.Validate(); err != nil {
		t.Errorf("parsed key does not validate: %v", err)
	}
}

func TestParsePrivateKey_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte(testPrivateKeyPEM), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	if _, err := ParsePrivateKey(path); err != nil {
		t.Fatalf("ParsePrivateKey from file: %v", err)
	}
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	if _, err := ParsePrivateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty input: err = %v, want ErrInvalidKey", err)
	}
	if _, err := ParsePrivateKey("-----BEGIN GARBAGE-----\nabc\n-----END GARBAGE-----"); err == nil {
		t.Error("garbage PEM accepted")
	}
}

func TestParsePrivateKey_RejectsNonRSAKeys(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}

	// PKCS#8-wrapped EC key: well-formed PEM, wrong key type.
	der, err := x509.MarshalPKCS8PrivateKey(ecKey)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	pkcs8 := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if _, err := ParsePrivateKey(string(pkcs8)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("pkcs8 ec key: err = %v, want ErrInvalidKey", err)
	}

	// SEC 1 EC block type is not recognized at all.
	sec1, err := x509.MarshalECPrivateKey(ecKey)
	if err != nil {
		t.Fatalf("marshal ec: %v", err)
	}
	ecPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})
	if _, err := ParsePrivateKey(string(ecPEM)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("sec1 ec key: err = %v, want ErrInvalidKey", err)
	}
}

func TestParsePublicKey_InlinePEM(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if pub == nil || pub.N == nil {
		t.Errorf("parsed public key is incomplete: %+v", pub)
	}
}

func TestParsePublicKey_RejectsNonRSAKeys(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal pkix: %v", err)
	}
	ecPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	if _, err := ParsePublicKey(string(ecPEM)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ec public key: err = %v, want ErrInvalidKey", err)
	}
}

func TestParsePublicKey_Invalid(t *testing.T) {
	if _, err := ParsePublicKey("not a key"); err == nil {
		t.Error("non-PEM input accepted")
	}
}
