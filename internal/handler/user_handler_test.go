package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	createFn    func(ctx context.Context, payload model.UserCreate) (*model.User, error)
	getFn       func(ctx context.Context, id uuid.UUID) (*model.User, error)
	listFn      func(ctx context.Context, offset, limit int) ([]*model.User, error)
	updateFn    func(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) (*model.User, error)
	listTodosFn func(ctx context.Context, userID uuid.UUID) ([]*model.Todo, error)
}

func (m *mockUserService) Create(ctx context.Context, payload model.UserCreate) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, payload)
	}
	return &model.User{ID: uuid.New(), Name: payload.Name, Email: payload.Email}, nil
}
func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}
func (m *mockUserService) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, nil
}
func (m *mockUserService) Update(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, payload)
	}
	return &model.User{ID: id}, nil
}
func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}
func (m *mockUserService) ListTodos(ctx context.Context, userID uuid.UUID) ([]*model.Todo, error) {
	if m.listTodosFn != nil {
		return m.listTodosFn(ctx, userID)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// decodeErrorBody はレスポンスボディから統一エラーフォーマットをパースするヘルパー。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func sampleUser() *model.User {
	return &model.User{
		ID:            uuid.New(),
		Name:          "alice",
		Email:         "alice@example.com",
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		AssignedTodos: []model.Todo{},
		CreatedTodos:  []model.Todo{},
		UpdatedTodos:  []model.Todo{},
	}
}

// --- POST /api/v1/users ---

func TestUserHandler_Create_Success(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc)

	body := bytes.NewBufferString(`{"name": "alice", "email": "alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["name"] != "alice" {
		t.Errorf("name = %q, want %q", got["name"], "alice")
	}
	// 作成レスポンスにはロールコレクションは含まれない
	if _, ok := got["assigned_todos"]; ok {
		t.Error("create response should not contain assigned_todos")
	}
}

func TestUserHandler_Create_InvalidJSON(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(`{broken`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestUserHandler_Create_ValidationError(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, payload model.UserCreate) (*model.User, error) {
			return nil, model.NewValidationError(model.FieldError{Field: "email", Reason: "invalid"})
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users",
		bytes.NewBufferString(`{"name": "alice", "email": "bad"}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	body := decodeErrorBody(t, w)
	if body["code"] != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeValidationFailed)
	}
	if _, ok := body["fields"]; !ok {
		t.Error("expected fields in validation error response")
	}
}

// --- GET /api/v1/users/{id} ---

func TestUserHandler_Get_Success(t *testing.T) {
	user := sampleUser()
	svc := &mockUserService{
		getFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return user, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+user.ID.String(), nil)
	req = withChiURLParam(req, "id", user.ID.String())
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["id"] != user.ID.String() {
		t.Errorf("id = %q, want %q", got["id"], user.ID.String())
	}
	// 詳細レスポンスには3つのロールコレクションが含まれる
	for _, key := range []string{"assigned_todos", "created_todos", "updated_todos"} {
		if _, ok := got[key]; !ok {
			t.Errorf("expected %q in detail response", key)
		}
	}
	// タイムスタンプは「YYYY-MM-DD HH:MM:SS」形式
	if got["created_at"] != "2025-06-01 12:00:00" {
		t.Errorf("created_at = %q, want %q", got["created_at"], "2025-06-01 12:00:00")
	}
}

func TestUserHandler_Get_InvalidUUID(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/not-a-uuid", nil)
	req = withChiURLParam(req, "id", "not-a-uuid")
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id.String(), nil)
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	body := decodeErrorBody(t, w)
	if body["code"] != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeUserNotFound)
	}
}

// --- GET /api/v1/users ---

func TestUserHandler_List_Success(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context, offset, limit int) ([]*model.User, error) {
			if offset != 5 || limit != 20 {
				t.Errorf("pagination = (%d, %d), want (5, 20)", offset, limit)
			}
			return []*model.User{sampleUser()}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?offset=5&limit=20", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}
}

func TestUserHandler_List_DefaultPagination(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context, offset, limit int) ([]*model.User, error) {
			if offset != 0 || limit != 100 {
				t.Errorf("pagination = (%d, %d), want defaults (0, 100)", offset, limit)
			}
			return []*model.User{}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestUserHandler_List_NonNumericPagination(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?offset=abc", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- PATCH /api/v1/users/{id} ---

func TestUserHandler_Update_Success(t *testing.T) {
	var gotPayload model.UserUpdate
	svc := &mockUserService{
		updateFn: func(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error) {
			gotPayload = payload
			return &model.User{ID: id}, nil
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/"+id.String(),
		bytes.NewBufferString(`{"name": "bob"}`))
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.Update(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	if !gotPayload.Name.Set || gotPayload.Name.Value != "bob" {
		t.Errorf("payload name = %+v, want set to bob", gotPayload.Name)
	}
	if gotPayload.Email.Set {
		t.Error("email should not be set for absent field")
	}
}

func TestUserHandler_Update_NotFound(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/"+id.String(),
		bytes.NewBufferString(`{"name": "bob"}`))
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- DELETE /api/v1/users/{id} ---

func TestUserHandler_Delete_Success(t *testing.T) {
	deleteCalled := false
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			deleteCalled = true
			return &model.User{ID: id}, nil
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+id.String(), nil)
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !deleteCalled {
		t.Error("expected Delete to be called")
	}
}

func TestUserHandler_Delete_StoreFailure(t *testing.T) {
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+id.String(), nil)
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.Delete(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	// 内部詳細はレスポンスに含めない
	body := decodeErrorBody(t, w)
	if body["code"] != model.ErrCodeStoreFailure {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeStoreFailure)
	}
	if msg, ok := body["message"].(string); ok && msg == "connection reset" {
		t.Error("internal error detail should not leak into response")
	}
}

// --- GET /api/v1/users/{id}/todos ---

func TestUserHandler_ListTodos_Success(t *testing.T) {
	userID := uuid.New()
	svc := &mockUserService{
		listTodosFn: func(ctx context.Context, id uuid.UUID) ([]*model.Todo, error) {
			if id != userID {
				t.Errorf("userID = %v, want %v", id, userID)
			}
			return []*model.Todo{
				{ID: uuid.New(), Title: "assigned task", Status: model.StatusTodo},
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+userID.String()+"/todos", nil)
	req = withChiURLParam(req, "id", userID.String())
	w := httptest.NewRecorder()

	h.ListTodos(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}
	if got[0]["status"] != "TODO" {
		t.Errorf("status = %q, want %q", got[0]["status"], "TODO")
	}
}

func TestUserHandler_ListTodos_EmptyList(t *testing.T) {
	svc := &mockUserService{
		listTodosFn: func(ctx context.Context, id uuid.UUID) ([]*model.Todo, error) {
			return []*model.Todo{}, nil
		},
	}
	h := NewUserHandler(svc)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id.String()+"/todos", nil)
	req = withChiURLParam(req, "id", id.String())
	w := httptest.NewRecorder()

	h.ListTodos(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	// 空でもJSON配列として返す
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}
