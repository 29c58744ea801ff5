// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, store, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // バリデーションエラーのフィールド別詳細
}

// FieldError はバリデーションエラーのフィールド単位の詳細を表す。
type FieldError struct {
	Field  string `json:"field"`  // フィールド名
	Reason string `json:"reason"` // エラー理由
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeTodoNotFound     = "TODO_NOT_FOUND"
	ErrCodeObjectNotFound   = "OBJECT_NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidStatus    = "INVALID_STATUS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeStoreFailure     = "STORE_FAILURE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザが見つかりません",
		Category: "store",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewTodoNotFoundError はTodoが見つからない場合のエラーを生成する。
func NewTodoNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  "指定されたTodoが見つかりません",
		Category: "store",
		Action:   "TodoのIDを確認してください。",
	}
}

// NewObjectNotFoundError はエンティティ非依存の未検出エラーを生成する。
// 汎用CRUDコアが返す既定のNotFoundエラー。
func NewObjectNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeObjectNotFound,
		Message:  "Object not found",
		Category: "store",
		Action:   "IDを確認してください。",
	}
}

// NewValidationError はフィールド別詳細付きのバリデーションエラーを生成する。
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力値が不正です。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Fields:   fields,
	}
}

// NewInvalidStatusError は無効なステータス指定のエラーを生成する。
func NewInvalidStatusError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", raw),
		Category: "validation",
		Action:   "ステータスには 1（TODO）、2（DOING）、3（DONE）のいずれかを指定してください。",
	}
}

// NewUnauthorizedError は認証情報が欠落している場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "Authorizationヘッダーを設定してください。",
	}
}

// NewForbiddenError は認証トークンが無効な場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Invalid authentication token",
		Category: "auth",
		Action:   "正しい認証トークンを設定してください。",
	}
}

// NewStoreFailureError は永続化層の失敗を表すエラーを生成する。
// 内部詳細はログにのみ記録し、レスポンスには含めない。
func NewStoreFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreFailure,
		Message:  "データストアでエラーが発生しました。",
		Category: "store",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
