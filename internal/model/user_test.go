package model

import (
	"strings"
	"testing"
)

// --- UserCreate ---

// TestUserCreate_Validate_OK は有効なペイロードが検証を通過することを検証する。
func TestUserCreate_Validate_OK(t *testing.T) {
	payload := UserCreate{Name: "alice", Email: "alice@example.com"}
	if apiErr := payload.Validate(); apiErr != nil {
		t.Errorf("expected no error, got %v", apiErr)
	}
}

// TestUserCreate_Validate_NameRequired は名前必須を検証する。
func TestUserCreate_Validate_NameRequired(t *testing.T) {
	payload := UserCreate{Name: "  ", Email: "alice@example.com"}

	apiErr := payload.Validate()
	if apiErr == nil {
		t.Fatal("expected validation error, got nil")
	}
	if len(apiErr.Fields) != 1 || apiErr.Fields[0].Field != "name" {
		t.Errorf("fields = %v, want single name error", apiErr.Fields)
	}
}

// TestUserCreate_Validate_NameTooLong は名前の50文字上限を検証する。
func TestUserCreate_Validate_NameTooLong(t *testing.T) {
	payload := UserCreate{
		Name:  strings.Repeat("あ", NameMaxLength+1),
		Email: "alice@example.com",
	}
	if apiErr := payload.Validate(); apiErr == nil {
		t.Fatal("expected validation error for long name, got nil")
	}

	// 上限ちょうどは許容される（文字数はルーン単位）
	payload.Name = strings.Repeat("あ", NameMaxLength)
	if apiErr := payload.Validate(); apiErr != nil {
		t.Errorf("expected no error at max length, got %v", apiErr)
	}
}

// TestUserCreate_Validate_InvalidEmail はメールアドレス形式の検証を行う。
func TestUserCreate_Validate_InvalidEmail(t *testing.T) {
	cases := []string{
		"",
		"not-an-email",
		"missing@domain@example.com",
		"display name <alice@example.com>",
	}

	for _, email := range cases {
		payload := UserCreate{Name: "alice", Email: email}
		if apiErr := payload.Validate(); apiErr == nil {
			t.Errorf("expected validation error for email %q, got nil", email)
		}
	}
}

// TestUserCreate_Validate_MultipleErrors は複数フィールドの違反がまとめて返ることを検証する。
func TestUserCreate_Validate_MultipleErrors(t *testing.T) {
	payload := UserCreate{Name: "", Email: "bad"}

	apiErr := payload.Validate()
	if apiErr == nil {
		t.Fatal("expected validation error, got nil")
	}
	if len(apiErr.Fields) != 2 {
		t.Errorf("fields = %d, want 2", len(apiErr.Fields))
	}
}

// --- UserUpdate ---

// TestUserUpdate_Validate_AbsentFieldsOK はフィールド未指定が有効であることを検証する。
func TestUserUpdate_Validate_AbsentFieldsOK(t *testing.T) {
	payload := UserUpdate{}
	if apiErr := payload.Validate(); apiErr != nil {
		t.Errorf("expected no error for empty payload, got %v", apiErr)
	}
	if !payload.Empty() {
		t.Error("Empty() = false, want true")
	}
}

// TestUserUpdate_Validate_ExplicitNullRejected は非nullableフィールドへの
// 明示的なnullが不正となることを検証する。
func TestUserUpdate_Validate_ExplicitNullRejected(t *testing.T) {
	payload := UserUpdate{Name: NewOptionalNull[string]()}
	if apiErr := payload.Validate(); apiErr == nil {
		t.Fatal("expected validation error for null name, got nil")
	}

	payload = UserUpdate{Email: NewOptionalNull[string]()}
	if apiErr := payload.Validate(); apiErr == nil {
		t.Fatal("expected validation error for null email, got nil")
	}
}

// TestUserUpdate_Validate_PartialOK は片側フィールドのみの更新が有効であることを検証する。
func TestUserUpdate_Validate_PartialOK(t *testing.T) {
	payload := UserUpdate{Name: NewOptional("bob")}
	if apiErr := payload.Validate(); apiErr != nil {
		t.Errorf("expected no error, got %v", apiErr)
	}
	if payload.Empty() {
		t.Error("Empty() = true, want false")
	}
}

// TestUserUpdate_Validate_InvalidEmail はメールアドレス形式の検証を行う。
func TestUserUpdate_Validate_InvalidEmail(t *testing.T) {
	payload := UserUpdate{Email: NewOptional("not-an-email")}
	if apiErr := payload.Validate(); apiErr == nil {
		t.Fatal("expected validation error, got nil")
	}
}
