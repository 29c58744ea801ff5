package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/s-nasu/task-track/internal/model"
)

// psql はPostgreSQLのプレースホルダ形式（$1, $2, ...）のクエリビルダ。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, created_at, updated_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

// Create はユーザーを作成し、生成されたIDとタイムスタンプを含む
// 完全なエンティティを返す。INSERT後に同一トランザクション内で
// リフレッシュ読み取りを行う。
func (r *PostgresUserRepo) Create(ctx context.Context, payload model.UserCreate) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	id := uuid.New()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, payload.Name, payload.Email, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// 新規ユーザーのロールコレクションは空で確定している
	user.AssignedTodos = []model.Todo{}
	user.CreatedTodos = []model.Todo{}
	user.UpdatedTodos = []model.Todo{}
	return user, nil
}

// Get は指定IDのユーザーを取得する。3つのロールコレクションも同一読み取り内で
// 解決される。見つからない場合はNotFoundエラーを返す。
func (r *PostgresUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	if err := r.loadTodoCollections(ctx, r.db, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// List はユーザー一覧をoffset/limitで取得する。
// 各ユーザーのロールコレクションはロールごとに1クエリでバッチ解決され、
// ユーザー数に比例した追加ラウンドトリップは発生しない。
func (r *PostgresUserRepo) List(ctx context.Context, opts ListOptions) ([]*model.User, error) {
	query, args, err := psql.Select("id", "name", "email", "created_at", "updated_at").
		From("users").
		OrderBy("created_at ASC").
		Offset(uint64(opts.Offset)).
		Limit(uint64(opts.Limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	if err := r.loadTodoCollections(ctx, r.db, users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update は指定IDのユーザーに部分更新を適用する。
// ペイロードに存在するフィールドのみをSET句に含め、updated_atは常に更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, id uuid.UUID, payload model.UserUpdate) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 行ロック付きで存在確認（NotFoundはここで確定する）
	var exists uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	builder := psql.Update("users").Set("updated_at", time.Now()).Where(sq.Eq{"id": id})
	if payload.Name.Set {
		builder = builder.Set("name", payload.Name.Value)
	}
	if payload.Email.Set {
		builder = builder.Set("email", payload.Email.Value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user update query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := r.loadTodoCollections(ctx, r.db, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete は指定IDのユーザーを物理削除し、削除直前の状態を返す。
// Todoの3つのロール外部キーはスキーマのON DELETE SET NULLによりnull化される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	// 削除直前のロールコレクションを最終状態として読み取る
	if err := r.loadTodoCollections(ctx, tx, []*model.User{user}); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// loadTodoCollections は複数ユーザーのロールコレクションを
// ロールごとに1クエリでまとめて読み込む。
func (r *PostgresUserRepo) loadTodoCollections(ctx context.Context, q querier, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, len(users))
	byID := make(map[uuid.UUID]*model.User, len(users))
	for i, u := range users {
		ids[i] = u.ID.String()
		byID[u.ID] = u
		u.AssignedTodos = []model.Todo{}
		u.CreatedTodos = []model.Todo{}
		u.UpdatedTodos = []model.Todo{}
	}

	for _, role := range []model.TodoRole{model.RoleAssignee, model.RoleCreator, model.RoleUpdater} {
		column, err := roleColumn(role)
		if err != nil {
			return err
		}

		rows, err := q.QueryContext(ctx,
			`SELECT id, title, description, status, assignee_id, creator_id, updater_id,
			        created_at, updated_at
			 FROM todos WHERE `+column+` = ANY($1)
			 ORDER BY created_at ASC`,
			pq.Array(ids),
		)
		if err != nil {
			return fmt.Errorf("failed to load %s todos: %w", role, err)
		}

		for rows.Next() {
			todo, err := scanTodo(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan todo: %w", err)
			}

			var ownerID *uuid.UUID
			switch role {
			case model.RoleAssignee:
				ownerID = todo.AssigneeID
			case model.RoleCreator:
				ownerID = todo.CreatorID
			case model.RoleUpdater:
				ownerID = todo.UpdaterID
			}
			if ownerID == nil {
				continue
			}
			owner, ok := byID[*ownerID]
			if !ok {
				continue
			}
			switch role {
			case model.RoleAssignee:
				owner.AssignedTodos = append(owner.AssignedTodos, *todo)
			case model.RoleCreator:
				owner.CreatedTodos = append(owner.CreatedTodos, *todo)
			case model.RoleUpdater:
				owner.UpdatedTodos = append(owner.UpdatedTodos, *todo)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate %s todos: %w", role, err)
		}
		rows.Close()
	}

	return nil
}

// roleColumn はロールを対応するカラム名に変換する。
// 識別子はプレースホルダにできないため、許可リストで固定する。
func roleColumn(role model.TodoRole) (string, error) {
	switch role {
	case model.RoleAssignee:
		return "assignee_id", nil
	case model.RoleCreator:
		return "creator_id", nil
	case model.RoleUpdater:
		return "updater_id", nil
	default:
		return "", fmt.Errorf("unknown todo role: %q", role)
	}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
