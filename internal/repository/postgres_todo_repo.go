package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// todoJoinColumns はTodo本体と3ロールのユーザーサマリを1クエリで
// 解決するためのSELECT列。ロール参照はユーザーサマリまでで止め、
// ユーザー側のTodoリストには再帰しない。
var todoJoinColumns = []string{
	"t.id", "t.title", "t.description", "t.status",
	"t.assignee_id", "t.creator_id", "t.updater_id",
	"t.created_at", "t.updated_at",
	"a.id", "a.name", "a.email", "a.created_at", "a.updated_at",
	"c.id", "c.name", "c.email", "c.created_at", "c.updated_at",
	"u.id", "u.name", "u.email", "u.created_at", "u.updated_at",
}

// todoJoinBuilder はロールユーザーをLEFT JOINしたTodo読み取りクエリの土台を返す。
func todoJoinBuilder() sq.SelectBuilder {
	return psql.Select(todoJoinColumns...).
		From("todos t").
		LeftJoin("users a ON a.id = t.assignee_id").
		LeftJoin("users c ON c.id = t.creator_id").
		LeftJoin("users u ON u.id = t.updater_id")
}

// scanTodo はロール参照を解決しないTodo1行をスキャンする。
// ユーザーのロールコレクション読み込みで使用する。
func scanTodo(row interface{ Scan(...any) error }) (*model.Todo, error) {
	todo := &model.Todo{}
	var description sql.NullString
	var assigneeID, creatorID, updaterID uuid.NullUUID

	err := row.Scan(
		&todo.ID, &todo.Title, &description, &todo.Status,
		&assigneeID, &creatorID, &updaterID,
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		todo.Description = &description.String
	}
	if assigneeID.Valid {
		todo.AssigneeID = &assigneeID.UUID
	}
	if creatorID.Valid {
		todo.CreatorID = &creatorID.UUID
	}
	if updaterID.Valid {
		todo.UpdaterID = &updaterID.UUID
	}
	return todo, nil
}

// nullableUser はLEFT JOINで取得したユーザーサマリのスキャン先。
type nullableUser struct {
	id        uuid.NullUUID
	name      sql.NullString
	email     sql.NullString
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

// toUser は有効な場合のみユーザーサマリを返す。
func (n nullableUser) toUser() *model.User {
	if !n.id.Valid {
		return nil
	}
	return &model.User{
		ID:        n.id.UUID,
		Name:      n.name.String,
		Email:     n.email.String,
		CreatedAt: n.createdAt.Time,
		UpdatedAt: n.updatedAt.Time,
	}
}

// scanTodoWithUsers はロールユーザーをJOIN済みのTodo1行をスキャンする。
func scanTodoWithUsers(row interface{ Scan(...any) error }) (*model.Todo, error) {
	todo := &model.Todo{}
	var description sql.NullString
	var assigneeID, creatorID, updaterID uuid.NullUUID
	var assignee, creator, updater nullableUser

	err := row.Scan(
		&todo.ID, &todo.Title, &description, &todo.Status,
		&assigneeID, &creatorID, &updaterID,
		&todo.CreatedAt, &todo.UpdatedAt,
		&assignee.id, &assignee.name, &assignee.email, &assignee.createdAt, &assignee.updatedAt,
		&creator.id, &creator.name, &creator.email, &creator.createdAt, &creator.updatedAt,
		&updater.id, &updater.name, &updater.email, &updater.createdAt, &updater.updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		todo.Description = &description.String
	}
	if assigneeID.Valid {
		todo.AssigneeID = &assigneeID.UUID
	}
	if creatorID.Valid {
		todo.CreatorID = &creatorID.UUID
	}
	if updaterID.Valid {
		todo.UpdaterID = &updaterID.UUID
	}
	todo.Assignee = assignee.toUser()
	todo.Creator = creator.toUser()
	todo.Updater = updater.toUser()
	return todo, nil
}

// getJoined はロールユーザーを解決したTodoを1件取得する。
func getJoined(ctx context.Context, q querier, id uuid.UUID) (*model.Todo, error) {
	query, args, err := todoJoinBuilder().Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo query: %w", err)
	}

	todo, err := scanTodoWithUsers(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, model.NewTodoNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo by ID: %w", err)
	}
	return todo, nil
}

// Create はTodoを作成し、生成されたIDとタイムスタンプ、解決済みの
// ロールユーザーを含む完全なエンティティを返す。存在しないユーザーIDを
// ロール参照に指定した場合は外部キー制約違反として永続化層エラーになる。
func (r *PostgresTodoRepo) Create(ctx context.Context, payload model.TodoCreate) (*model.Todo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	id := uuid.New()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO todos (id, title, description, status,
		                    assignee_id, creator_id, updater_id,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, payload.Title, payload.Description.Ptr(), payload.EffectiveStatus(),
		payload.AssigneeID.Ptr(), payload.CreatorID.Ptr(), payload.UpdaterID.Ptr(),
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	todo, err := getJoined(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return todo, nil
}

// Get は指定IDのTodoをロールユーザー解決済みで取得する。
func (r *PostgresTodoRepo) Get(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	return getJoined(ctx, r.db, id)
}

// List はTodo一覧をoffset/limitで取得する。statusが指定された場合は
// 一致するステータスのみ返す。
func (r *PostgresTodoRepo) List(ctx context.Context, opts ListOptions, status *model.TaskStatus) ([]*model.Todo, error) {
	builder := todoJoinBuilder().
		OrderBy("t.created_at ASC").
		Offset(uint64(opts.Offset)).
		Limit(uint64(opts.Limit))
	if status != nil {
		builder = builder.Where(sq.Eq{"t.status": int(*status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo list query: %w", err)
	}
	return r.queryTodos(ctx, query, args...)
}

// ListByRole は指定ロールで指定ユーザーを参照するTodoを全件取得する。
func (r *PostgresTodoRepo) ListByRole(ctx context.Context, role model.TodoRole, userID uuid.UUID) ([]*model.Todo, error) {
	column, err := roleColumn(role)
	if err != nil {
		return nil, err
	}

	query, args, err := todoJoinBuilder().
		Where(sq.Eq{"t." + column: userID}).
		OrderBy("t.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo role query: %w", err)
	}
	return r.queryTodos(ctx, query, args...)
}

// queryTodos はJOIN済みクエリを実行してTodoスライスを返す。
func (r *PostgresTodoRepo) queryTodos(ctx context.Context, query string, args ...any) ([]*model.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*model.Todo
	for rows.Next() {
		todo, err := scanTodoWithUsers(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// Update は指定IDのTodoに部分更新を適用する。ペイロードに存在する
// フィールドのみをSET句に含め、明示的なnullはロール参照の解除として
// 適用する。updated_atは常に更新する。
func (r *PostgresTodoRepo) Update(ctx context.Context, id uuid.UUID, payload model.TodoUpdate) (*model.Todo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 行ロック付きで存在確認（NotFoundはここで確定する）
	var exists uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM todos WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, model.NewTodoNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock todo: %w", err)
	}

	builder := psql.Update("todos").Set("updated_at", time.Now()).Where(sq.Eq{"id": id})
	if payload.Title.Set {
		builder = builder.Set("title", payload.Title.Value)
	}
	if payload.Description.Set {
		builder = builder.Set("description", payload.Description.Ptr())
	}
	if payload.Status.Set {
		builder = builder.Set("status", int(payload.Status.Value))
	}
	if payload.AssigneeID.Set {
		builder = builder.Set("assignee_id", payload.AssigneeID.Ptr())
	}
	if payload.UpdaterID.Set {
		builder = builder.Set("updater_id", payload.UpdaterID.Ptr())
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo update query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	todo, err := getJoined(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return todo, nil
}

// Delete は指定IDのTodoを物理削除し、削除直前の状態を返す。
func (r *PostgresTodoRepo) Delete(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	todo, err := getJoined(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return todo, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
