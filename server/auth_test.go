package server

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyPassword("hunter2", hash)
	if err != nil || !ok {
		t.Errorf("correct password rejected: %v", err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := &Server{tokenSecret: "test-secret"}
	token, err := s.CreateToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.ValidateToken(token.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Name != "alice" {
		t.Errorf("claims name = %q, want alice", claims.Name)
	}

	other := &Server{tokenSecret: "different"}
	if _, err := other.ValidateToken(token.AccessToken); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Error("malformed hash accepted")
	}
}
