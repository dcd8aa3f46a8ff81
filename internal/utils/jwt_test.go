package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

func TestGenerateAndValidateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("test-secret")

	tokenString, err := jwtUtil.GenerateToken("user123", "manager", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := jwtUtil.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		t.Fatalf("ValidateToken: %v, valid=%v", err, token != nil && token.Valid)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if claims["user_id"] != "user123" {
		t.Errorf("user_id = %v, want user123", claims["user_id"])
	}
	if claims["role"] != "manager" {
		t.Errorf("role = %v, want manager", claims["role"])
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tokenString, err := NewJWTUtil("secret-one").GenerateToken("user123", "user", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := NewJWTUtil("secret-two").ValidateToken(tokenString)
	if err == nil && token.Valid {
		t.Error("token signed with another secret passed validation")
	}
}

func TestGenerateCode(t *testing.T) {
	code := GenerateCode(12)
	if len(code) != 12 {
		t.Errorf("code length = %d, want 12", len(code))
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Errorf("unexpected character %q in code", r)
		}
	}
}
