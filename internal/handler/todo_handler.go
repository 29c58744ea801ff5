package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	// Create は新しいTodoを作成する。
	Create(ctx context.Context, payload model.TodoCreate) (*model.Todo, error)
	// Get は指定IDのTodoを取得する。
	Get(ctx context.Context, id uuid.UUID) (*model.Todo, error)
	// List はTodo一覧を取得する。statusFilterは序数文字列（空ならフィルタなし）。
	List(ctx context.Context, offset, limit int, statusFilter string) ([]*model.Todo, error)
	// Update は指定IDのTodoに部分更新を適用する。
	Update(ctx context.Context, id uuid.UUID, payload model.TodoUpdate) (*model.Todo, error)
	// Delete は指定IDのTodoを削除する。
	Delete(ctx context.Context, id uuid.UUID) (*model.Todo, error)
}

// TodoHandler はタスク管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{
		service: service,
	}
}

// Create は新しいTodoを作成する。
// POST /api/v1/todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.TodoCreate
	if apiErr := decodeBody(r, &payload); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	todo, err := h.service.Create(r.Context(), payload)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTodoResponse(todo))
}

// List はTodo一覧を取得する。
// GET /api/v1/todos?offset&limit&status
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit, apiErr := paginationParams(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	todos, err := h.service.List(r.Context(), offset, limit, r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponses(todos))
}

// Get は指定IDのTodoを取得する。
// GET /api/v1/todos/{id}
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	todo, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(todo))
}

// Update は指定IDのTodoに部分更新を適用する。
// PATCH /api/v1/todos/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return
	}

	var payload model.TodoUpdate
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

// Delete は指定IDのTodoを削除する。
// DELETE /api/v1/todos/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
