package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DescriptionMaxLength はTodo説明文の最大文字数。
const DescriptionMaxLength = 1024

// TaskStatus はTodoの進行状態を表す。DBには序数（1/2/3）で保存し、
// JSON境界ではシンボル形式（"TODO"等）で受け渡す。
type TaskStatus int

const (
	// StatusTodo は未着手状態。
	StatusTodo TaskStatus = 1
	// StatusDoing は進行中状態。
	StatusDoing TaskStatus = 2
	// StatusDone は完了状態。
	StatusDone TaskStatus = 3
)

// Valid は定義済みの3値のいずれかであるかを返す。
func (s TaskStatus) Valid() bool {
	return s == StatusTodo || s == StatusDoing || s == StatusDone
}

// String はシンボル形式の表現を返す。
func (s TaskStatus) String() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusDoing:
		return "DOING"
	case StatusDone:
		return "DONE"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// ParseTaskStatus はシンボル形式の文字列をTaskStatusに変換する。
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch s {
	case "TODO":
		return StatusTodo, nil
	case "DOING":
		return StatusDoing, nil
	case "DONE":
		return StatusDone, nil
	default:
		return 0, fmt.Errorf("unknown task status: %q", s)
	}
}

// MarshalJSON はjson.Marshalerを実装する。
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid task status: %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task status must be a string: %w", err)
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Todo はタスクを表す。3つのロール外部キーはいずれも同一のUserを参照するが、
// 担当者・作成者・更新者という意味的に独立した関係を表し、互いに独立して
// nullや同一ユーザーを取り得る。
type Todo struct {
	ID          uuid.UUID
	Title       string
	Description *string
	Status      TaskStatus
	AssigneeID  *uuid.UUID
	CreatorID   *uuid.UUID
	UpdaterID   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// 読み取り時に解決されるユーザーサマリ。逆方向のTodoリストは
	// 持たない（無限再帰を避ける）。
	Assignee *User
	Creator  *User
	Updater  *User
}

// TodoRole はTodoからUserへの外部キーロールを表す。
type TodoRole string

const (
	// RoleAssignee は担当者ロール。
	RoleAssignee TodoRole = "assignee"
	// RoleCreator は作成者ロール。
	RoleCreator TodoRole = "creator"
	// RoleUpdater は更新者ロール。
	RoleUpdater TodoRole = "updater"
)

// TodoCreate はTodo作成ペイロードを表す。
// statusを省略した場合はTODOが既定値となる。
type TodoCreate struct {
	Title       string               `json:"title"`
	Description Optional[string]     `json:"description"`
	Status      *TaskStatus          `json:"status"`
	AssigneeID  Optional[uuid.UUID]  `json:"assignee_id"`
	CreatorID   Optional[uuid.UUID]  `json:"creator_id"`
	UpdaterID   Optional[uuid.UUID]  `json:"updater_id"`
}

// EffectiveStatus は指定されたステータス、未指定の場合は既定値TODOを返す。
func (c TodoCreate) EffectiveStatus() TaskStatus {
	if c.Status == nil {
		return StatusTodo
	}
	return *c.Status
}

// Validate はペイロードのスキーマ制約を検証する。
func (c TodoCreate) Validate() *APIError {
	var fields []FieldError
	if strings.TrimSpace(c.Title) == "" {
		fields = append(fields, FieldError{Field: "title", Reason: "必須項目です"})
	}
	if c.Description.Valid && len([]rune(c.Description.Value)) > DescriptionMaxLength {
		fields = append(fields, FieldError{Field: "description", Reason: "1024文字以内で入力してください"})
	}
	if c.Status != nil && !c.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Reason: "TODO、DOING、DONEのいずれかを指定してください"})
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// TodoUpdate はTodoの部分更新ペイロードを表す。
// 未指定のフィールドは変更されない。ロール参照は明示的なnullで解除できる。
type TodoUpdate struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	Status      Optional[TaskStatus] `json:"status"`
	AssigneeID  Optional[uuid.UUID]  `json:"assignee_id"`
	UpdaterID   Optional[uuid.UUID]  `json:"updater_id"`
}

// Validate はペイロードのスキーマ制約を検証する。
func (u TodoUpdate) Validate() *APIError {
	var fields []FieldError
	if u.Title.Set {
		if !u.Title.Valid || strings.TrimSpace(u.Title.Value) == "" {
			fields = append(fields, FieldError{Field: "title", Reason: "空にはできません"})
		}
	}
	if u.Description.Valid && len([]rune(u.Description.Value)) > DescriptionMaxLength {
		fields = append(fields, FieldError{Field: "description", Reason: "1024文字以内で入力してください"})
	}
	if u.Status.Set {
		if !u.Status.Valid || !u.Status.Value.Valid() {
			fields = append(fields, FieldError{Field: "status", Reason: "TODO、DOING、DONEのいずれかを指定してください"})
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// Empty は更新対象のフィールドが1つも存在しない場合にtrueを返す。
func (u TodoUpdate) Empty() bool {
	return !u.Title.Set && !u.Description.Set && !u.Status.Set &&
		!u.AssigneeID.Set && !u.UpdaterID.Set
}
