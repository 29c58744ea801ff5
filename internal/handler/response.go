// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/middleware"
	"github.com/s-nasu/task-track/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	CreatedAt model.FormattedTime `json:"created_at"`
	UpdatedAt model.FormattedTime `json:"updated_at"`
}

// todoSummaryResponse はロールコレクション内のTodoのAPIレスポンス。
// ユーザーサマリへの再帰は行わない。
type todoSummaryResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      model.TaskStatus    `json:"status"`
	CreatedAt   model.FormattedTime `json:"created_at"`
	UpdatedAt   model.FormattedTime `json:"updated_at"`
}

// userWithTodosResponse は3つのロールコレクション付きのユーザーレスポンス。
type userWithTodosResponse struct {
	userResponse
	AssignedTodos []todoSummaryResponse `json:"assigned_todos"`
	CreatedTodos  []todoSummaryResponse `json:"created_todos"`
	UpdatedTodos  []todoSummaryResponse `json:"updated_todos"`
}

// todoResponse はロールユーザー解決済みのTodoのAPIレスポンス。
type todoResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      model.TaskStatus    `json:"status"`
	Assignee    *userResponse       `json:"assignee"`
	Creator     *userResponse       `json:"creator"`
	Updater     *userResponse       `json:"updater"`
	CreatedAt   model.FormattedTime `json:"created_at"`
	UpdatedAt   model.FormattedTime `json:"updated_at"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: model.FormattedTime(user.CreatedAt),
		UpdatedAt: model.FormattedTime(user.UpdatedAt),
	}
}

func toTodoSummaryResponses(todos []model.Todo) []todoSummaryResponse {
	results := make([]todoSummaryResponse, len(todos))
	for i, t := range todos {
		results[i] = todoSummaryResponse{
			ID:          t.ID.String(),
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			CreatedAt:   model.FormattedTime(t.CreatedAt),
			UpdatedAt:   model.FormattedTime(t.UpdatedAt),
		}
	}
	return results
}

func toUserWithTodosResponse(user *model.User) userWithTodosResponse {
	return userWithTodosResponse{
		userResponse:  toUserResponse(user),
		AssignedTodos: toTodoSummaryResponses(user.AssignedTodos),
		CreatedTodos:  toTodoSummaryResponses(user.CreatedTodos),
		UpdatedTodos:  toTodoSummaryResponses(user.UpdatedTodos),
	}
}

func toTodoResponse(todo *model.Todo) todoResponse {
	resp := todoResponse{
		ID:          todo.ID.String(),
		Title:       todo.Title,
		Description: todo.Description,
		Status:      todo.Status,
		CreatedAt:   model.FormattedTime(todo.CreatedAt),
		UpdatedAt:   model.FormattedTime(todo.UpdatedAt),
	}
	if todo.Assignee != nil {
		r := toUserResponse(todo.Assignee)
		resp.Assignee = &r
	}
	if todo.Creator != nil {
		r := toUserResponse(todo.Creator)
		resp.Creator = &r
	}
	if todo.Updater != nil {
		r := toUserResponse(todo.Updater)
		resp.Updater = &r
	}
	return resp
}

func toTodoResponses(todos []*model.Todo) []todoResponse {
	results := make([]todoResponse, len(todos))
	for i, t := range todos {
		results[i] = toTodoResponse(t)
	}
	return results
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外は永続化層の失敗として詳細をログにのみ記録し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("store failure", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewStoreFailureError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserNotFound, model.ErrCodeTodoNotFound, model.ErrCodeObjectNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidStatus:
		return http.StatusUnprocessableEntity
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeStoreFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// parseIDParam はURLパラメータのUUIDを解析する。
// 不正な形式はバリデーションエラーとして扱う。
func parseIDParam(r *http.Request) (uuid.UUID, *model.APIError) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError(model.FieldError{
			Field:  "id",
			Reason: "UUID形式で指定してください",
		})
	}
	return id, nil
}

// paginationParams はoffset/limitクエリパラメータを解析する。
// 未指定の場合はoffset=0、limit=100を既定値とする。
// 数値でない場合はバリデーションエラーを返す（境界検証はサービス層が行う）。
func paginationParams(r *http.Request) (offset, limit int, apiErr *model.APIError) {
	offset, limit = 0, 100

	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, model.NewValidationError(model.FieldError{
				Field:  "offset",
				Reason: "整数で指定してください",
			})
		}
		offset = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, model.NewValidationError(model.FieldError{
				Field:  "limit",
				Reason: "整数で指定してください",
			})
		}
		limit = n
	}
	return offset, limit, nil
}

// decodeBody はリクエストボディをJSONデコードする。
// 解析に失敗した場合はバリデーションエラーを返す。
func decodeBody(r *http.Request, out any) *model.APIError {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return model.NewValidationError(model.FieldError{
			Field:  "body",
			Reason: "正しいJSON形式でリクエストしてください",
		})
	}
	return nil
}
