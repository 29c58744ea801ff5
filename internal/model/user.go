package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NameMaxLength はユーザー名の最大文字数。
const NameMaxLength = 50

// User はタスク管理サービスの利用ユーザーを表す。
// AssignedTodos / CreatedTodos / UpdatedTodos はTodo側の3つの
// 外部キーロールに対応する非所有の逆参照コレクション。
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time

	AssignedTodos []Todo
	CreatedTodos  []Todo
	UpdatedTodos  []Todo
}

// UserCreate はユーザー作成ペイロードを表す。
type UserCreate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate はペイロードのスキーマ制約を検証する。
// 違反がある場合はフィールド別詳細付きのValidationErrorを返す。
func (c UserCreate) Validate() *APIError {
	var fields []FieldError
	if strings.TrimSpace(c.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Reason: "必須項目です"})
	}
	if len([]rune(c.Name)) > NameMaxLength {
		fields = append(fields, FieldError{Field: "name", Reason: "50文字以内で入力してください"})
	}
	if c.Email == "" {
		fields = append(fields, FieldError{Field: "email", Reason: "必須項目です"})
	} else if !validEmail(c.Email) {
		fields = append(fields, FieldError{Field: "email", Reason: "メールアドレスの形式が不正です"})
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// UserUpdate はユーザーの部分更新ペイロードを表す。
// 未指定のフィールドは変更されない。
type UserUpdate struct {
	Name  Optional[string] `json:"name"`
	Email Optional[string] `json:"email"`
}

// Validate はペイロードのスキーマ制約を検証する。
// name / email は非nullableのため、明示的なnullも不正とする。
func (u UserUpdate) Validate() *APIError {
	var fields []FieldError
	if u.Name.Set {
		if !u.Name.Valid || strings.TrimSpace(u.Name.Value) == "" {
			fields = append(fields, FieldError{Field: "name", Reason: "空にはできません"})
		} else if len([]rune(u.Name.Value)) > NameMaxLength {
			fields = append(fields, FieldError{Field: "name", Reason: "50文字以内で入力してください"})
		}
	}
	if u.Email.Set {
		if !u.Email.Valid || u.Email.Value == "" {
			fields = append(fields, FieldError{Field: "email", Reason: "空にはできません"})
		} else if !validEmail(u.Email.Value) {
			fields = append(fields, FieldError{Field: "email", Reason: "メールアドレスの形式が不正です"})
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// Empty は更新対象のフィールドが1つも存在しない場合にtrueを返す。
// 空のペイロードでもupdated_atは更新される。
func (u UserUpdate) Empty() bool {
	return !u.Name.Set && !u.Email.Set
}

// validEmail はRFC 5322のアドレス形式として妥当か検証する。
// 表示名付きアドレス（"name <a@b>"）は境界では不正として扱う。
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}
