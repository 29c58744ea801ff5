// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
	"github.com/s-nasu/task-track/internal/repository"
)

// TodoLister はユーザーに紐づくTodo一覧取得のインターフェース。
type TodoLister interface {
	ListByRole(ctx context.Context, role model.TodoRole, userID uuid.UUID) ([]*model.Todo, error)
}

// Sanitizer は自由記述フィールドの無害化インターフェース。
type Sanitizer interface {
	SanitizeText(text string) string
}

// OperationRecorder はエンティティ操作のメトリクス記録インターフェース。
type OperationRecorder interface {
	RecordEntityOperation(entity, operation string)
}

// Service はユーザー管理のサービス層。
// ペイロード検証と無害化を行った上でリポジトリに委譲する。
type Service struct {
	repo      repository.UserRepository
	todos     TodoLister
	sanitizer Sanitizer
	recorder  OperationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.UserRepository, todos TodoLister, sanitizer Sanitizer, recorder OperationRecorder) *Service {
	return &Service{
		repo:      repo,
		todos:     todos,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// Create は新しいユーザーを作成する。
func (s *Service) Create(ctx context.Context, payload model.UserCreate) (*model.User, error) {
	if s.sanitizer != nil {
		payload.Name = s.sanitizer.SanitizeText(payload.Name)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	s.record("create")
	slog.Info("user created", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Get は指定IDのユーザーをTodoコレクション付きで取得する。
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record("get")
	return user, nil
}

// List はユーザー一覧を取得する。offset/limitの境界検証を行う。
func (s *Service) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if err := ValidatePagination(offset, limit); err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx, repository.ListOptions{Offset: offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	s.record("list")
	return users, nil
}

// Update は指定IDのユーザーに部分更新を適用する。
// 空のペイロードでもupdated_atは更新される。
func (s *Service) Update(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error) {
	if s.sanitizer != nil && payload.Name.Valid {
		payload.Name.Value = s.sanitizer.SanitizeText(payload.Name.Value)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.record("update")
	return user, nil
}

// Delete は指定IDのユーザーを削除し、削除直前の状態を返す。
// そのユーザーを参照していたTodoのロール外部キーはnull化される。
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record("delete")
	slog.Info("user deleted", slog.String("user_id", id.String()))
	return user, nil
}

// ListTodos は指定ユーザーが担当者になっているTodoを全件取得する。
// ユーザーが存在しない場合も空リストを返す（存在チェックは行わない）。
func (s *Service) ListTodos(ctx context.Context, userID uuid.UUID) ([]*model.Todo, error) {
	todos, err := s.todos.ListByRole(ctx, model.RoleAssignee, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのTodo一覧の取得に失敗しました: %w", err)
	}
	return todos, nil
}

func (s *Service) record(op string) {
	if s.recorder != nil {
		s.recorder.RecordEntityOperation("user", op)
	}
}

// ValidatePagination はoffset/limitの境界を検証する。
// offset >= 0、1 <= limit <= 100 を要求する。
func ValidatePagination(offset, limit int) *model.APIError {
	var fields []model.FieldError
	if offset < 0 {
		fields = append(fields, model.FieldError{Field: "offset", Reason: "0以上を指定してください"})
	}
	if limit < 1 || limit > 100 {
		fields = append(fields, model.FieldError{Field: "limit", Reason: "1以上100以下を指定してください"})
	}
	if len(fields) > 0 {
		return model.NewValidationError(fields...)
	}
	return nil
}
