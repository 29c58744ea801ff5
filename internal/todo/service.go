// Package todo はタスク管理のドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
	"github.com/s-nasu/task-track/internal/repository"
	"github.com/s-nasu/task-track/internal/user"
)

// Sanitizer は自由記述フィールドの無害化インターフェース。
type Sanitizer interface {
	SanitizeText(text string) string
}

// OperationRecorder はエンティティ操作のメトリクス記録インターフェース。
type OperationRecorder interface {
	RecordEntityOperation(entity, operation string)
}

// Service はタスク管理のサービス層。
type Service struct {
	repo      repository.TodoRepository
	sanitizer Sanitizer
	recorder  OperationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TodoRepository, sanitizer Sanitizer, recorder OperationRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// Create は新しいTodoを作成する。statusを省略した場合はTODOになる。
func (s *Service) Create(ctx context.Context, payload model.TodoCreate) (*model.Todo, error) {
	if s.sanitizer != nil {
		payload.Title = s.sanitizer.SanitizeText(payload.Title)
		if payload.Description.Valid {
			payload.Description.Value = s.sanitizer.SanitizeText(payload.Description.Value)
		}
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	todo, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("Todoの作成に失敗しました: %w", err)
	}

	s.record("create")
	slog.Info("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("status", todo.Status.String()),
	)
	return todo, nil
}

// Get は指定IDのTodoをロールユーザー解決済みで取得する。
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record("get")
	return todo, nil
}

// List はTodo一覧を取得する。statusFilterが空でない場合は序数文字列として
// 解釈し、一致するステータスのみ返す。数値でない場合はバリデーションエラー。
func (s *Service) List(ctx context.Context, offset, limit int, statusFilter string) ([]*model.Todo, error) {
	if err := user.ValidatePagination(offset, limit); err != nil {
		return nil, err
	}

	status, err := ParseStatusFilter(statusFilter)
	if err != nil {
		return nil, err
	}

	todos, err := s.repo.List(ctx, repository.ListOptions{Offset: offset, Limit: limit}, status)
	if err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗しました: %w", err)
	}
	s.record("list")
	return todos, nil
}

// Update は指定IDのTodoに部分更新を適用する。
func (s *Service) Update(ctx context.Context, id uuid.UUID, payload model.TodoUpdate) (*model.Todo, error) {
	if s.sanitizer != nil {
		if payload.Title.Valid {
			payload.Title.Value = s.sanitizer.SanitizeText(payload.Title.Value)
		}
		if payload.Description.Valid {
			payload.Description.Value = s.sanitizer.SanitizeText(payload.Description.Value)
		}
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	todo, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.record("update")
	return todo, nil
}

// Delete は指定IDのTodoを削除し、削除直前の状態を返す。
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record("delete")
	slog.Info("todo deleted", slog.String("todo_id", id.String()))
	return todo, nil
}

func (s *Service) record(op string) {
	if s.recorder != nil {
		s.recorder.RecordEntityOperation("todo", op)
	}
}

// ParseStatusFilter は一覧取得の序数ステータスフィルタを解釈する。
// 空文字はフィルタなし。数値でない場合はバリデーションエラーを返す。
// 範囲外の数値はエラーにせず、どのTodoにも一致しないフィルタとして扱う。
func ParseStatusFilter(raw string) (*model.TaskStatus, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.NewInvalidStatusError(raw)
	}
	status := model.TaskStatus(n)
	return &status, nil
}
