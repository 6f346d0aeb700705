package auth

import (
	"testing"
	"time"

	"faceguard/internal/types"
)

func TestExportToken_RoundTrip(t *testing.T) {
	issuer := NewExportTokenIssuer("test-secret", time.Minute)
	spec := types.ExportSpec{SelectedTrackIDs: []uint32{1, 2}, Padding: 0.2, BlurAmount: 15, SampleRate: 1}

	token, err := issuer.IssueExportToken("vid-1", spec)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.VerifyExportToken(token, "vid-1", spec); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestExportToken_RejectsWrongVideo(t *testing.T) {
	issuer := NewExportTokenIssuer("test-secret", time.Minute)
	spec := types.ExportSpec{BlurAmount: 15, SampleRate: 1}

	token, err := issuer.IssueExportToken("vid-1", spec)
	if err != nil {
		t.Fatal(err)
	}
	if err := issuer.VerifyExportToken(token, "vid-2", spec); err != ErrInvalidExportToken {
		t.Fatalf("err = %v, want ErrInvalidExportToken", err)
	}
}

func TestExportToken_RejectsFingerprintMismatch(t *testing.T) {
	issuer := NewExportTokenIssuer("test-secret", time.Minute)
	spec := types.ExportSpec{SelectedTrackIDs: []uint32{1}, BlurAmount: 15, SampleRate: 1}

	token, err := issuer.IssueExportToken("vid-1", spec)
	if err != nil {
		t.Fatal(err)
	}

	changed := spec
	changed.BlurAmount = 30
	if err := issuer.VerifyExportToken(token, "vid-1", changed); err != ErrInvalidExportToken {
		t.Fatalf("err = %v, want ErrInvalidExportToken for a spec with a different fingerprint", err)
	}
}

func TestExportToken_RejectsExpired(t *testing.T) {
	issuer := NewExportTokenIssuer("test-secret", time.Millisecond)
	spec := types.ExportSpec{BlurAmount: 15, SampleRate: 1}

	token, err := issuer.IssueExportToken("vid-1", spec)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := issuer.VerifyExportToken(token, "vid-1", spec); err != ErrExportTokenExpired {
		t.Fatalf("err = %v, want ErrExportTokenExpired", err)
	}
}

func TestFingerprint_SensitiveToTrackIDOrder(t *testing.T) {
	a := types.ExportSpec{SelectedTrackIDs: []uint32{1, 2}, Padding: 0.1, BlurAmount: 10, SampleRate: 1}
	b := types.ExportSpec{SelectedTrackIDs: []uint32{2, 1}, Padding: 0.1, BlurAmount: 10, SampleRate: 1}

	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("fingerprint should be sensitive to selected-track order, since order is part of the canonical JSON encoding")
	}
}
