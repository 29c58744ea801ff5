package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Create は新しいユーザーを作成する。
	Create(ctx context.Context, payload model.UserCreate) (*model.User, error)
	// Get は指定IDのユーザーをTodoコレクション付きで取得する。
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	// List はユーザー一覧を取得する。
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	// Update は指定IDのユーザーに部分更新を適用する。
	Update(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error)
	// Delete は指定IDのユーザーを削除する。
	Delete(ctx context.Context, id uuid.UUID) (*model.User, error)
	// ListTodos は指定ユーザーが担当者のTodoを全件取得する。
	ListTodos(ctx context.Context, userID uuid.UUID) ([]*model.Todo, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Create は新しいユーザーを作成する。
// POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.UserCreate
	if apiErr := decodeBody(r, &payload); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	user, err := h.service.Create(r.Context(), payload)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// List はユーザー一覧をTodoコレクション付きで取得する。
// GET /api/v1/users?offset&limit
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit, apiErr := paginationParams(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	users, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userWithTodosResponse, len(users))
	for i, user := range users {
		results[i] = toUserWithTodosResponse(user)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get は指定IDのユーザーをTodoコレクション付きで取得する。
// GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserWithTodosResponse(user))
}

// Update は指定IDのユーザーに部分更新を適用する。
// PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	var payload model.UserUpdate
	if apiErr := decodeBody(r, &payload); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	if _, err := h.service.Update(r.Context(), id, payload); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete は指定IDのユーザーを削除する。
// DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	if _, err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTodos は指定ユーザーが担当者のTodoを全件取得する。
// GET /api/v1/users/{id}/todos
func (h *UserHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	todos, err := h.service.ListTodos(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponses(todos))
}
