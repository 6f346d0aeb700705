package auth

import "testing"

func TestAPIKeyVerifier_Disabled(t *testing.T) {
	v := NewAPIKeyVerifier("")
	if v.Enabled() {
		t.Fatal("empty key should disable verification")
	}
	if err := v.Verify("anything"); err != nil {
		t.Fatalf("disabled verifier rejected a request: %v", err)
	}
}

func TestAPIKeyVerifier_Plaintext(t *testing.T) {
	v := NewAPIKeyVerifier("super-secret")
	if !v.Enabled() {
		t.Fatal("non-empty key should enable verification")
	}
	if err := v.Verify("super-secret"); err != nil {
		t.Fatalf("correct plaintext key rejected: %v", err)
	}
	if err := v.Verify("wrong-key"); err != ErrInvalidAPIKey {
		t.Fatalf("err = %v, want ErrInvalidAPIKey", err)
	}
}

func TestAPIKeyVerifier_BcryptHash(t *testing.T) {
	hash, err := HashAPIKey("super-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	v := NewAPIKeyVerifier(hash)
	if !v.isHash {
		t.Fatal("a 60-byte $2-prefixed key should be detected as a bcrypt hash")
	}
	if err := v.Verify("super-secret"); err != nil {
		t.Fatalf("correct key against bcrypt hash rejected: %v", err)
	}
	if err := v.Verify("wrong-key"); err != ErrInvalidAPIKey {
		t.Fatalf("err = %v, want ErrInvalidAPIKey", err)
	}
}
