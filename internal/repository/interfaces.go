// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/s-nasu/task-track/internal/model"
)

// CRUD はエンティティ型とその作成・更新ペイロード型でパラメータ化された
// 汎用永続化操作。実行時ディスパッチは行わず、エンティティごとの具象実装が
// コンパイル時にこの契約へ束縛される。
//
// すべての操作は1つの論理トランザクション内で実行され、途中失敗は
// 部分書き込みにならずロールバックされる。Get/Update/Deleteは対象IDの
// レコードが存在しない場合、型付きのNotFoundエラー（*model.APIError）を返す。
type CRUD[E any, C any, U any] interface {
	// Create は検証済みペイロードから新しいエンティティを構築・永続化し、
	// 生成されたIDとタイムスタンプを含む完全なエンティティを返す。
	// 作成直後は created_at == updated_at が成立する。
	Create(ctx context.Context, payload C) (*E, error)

	// Get はIDでエンティティを取得する。副作用はない。
	Get(ctx context.Context, id uuid.UUID) (*E, error)

	// Update はGetで取得した上で、ペイロードに存在するフィールドのみを
	// 適用する部分更新を行う（明示的なnullはNULLへの更新として適用される）。
	// updated_atは必ず更新される。
	Update(ctx context.Context, id uuid.UUID, payload U) (*E, error)

	// Delete はGetで取得した上でレコードを物理削除し、削除直前の状態を返す。
	// 2回目の削除はNotFoundエラーとなる。
	Delete(ctx context.Context, id uuid.UUID) (*E, error)
}

// ListOptions は一覧取得のページネーション指定を表す。
// 境界のバリデーション（offset >= 0、1 <= limit <= 100）はサービス層が行う。
type ListOptions struct {
	Offset int
	Limit  int
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	CRUD[model.User, model.UserCreate, model.UserUpdate]

	// List はユーザー一覧をoffset/limitで取得する。
	// 各ユーザーの3つのロールコレクションは同一読み取り内で解決される。
	List(ctx context.Context, opts ListOptions) ([]*model.User, error)
}

// TodoRepository はTodoデータの永続化インターフェース。
type TodoRepository interface {
	CRUD[model.Todo, model.TodoCreate, model.TodoUpdate]

	// List はTodo一覧をoffset/limitで取得する。statusがnilでない場合は
	// 一致するステータスのみに絞り込む。
	List(ctx context.Context, opts ListOptions, status *model.TaskStatus) ([]*model.Todo, error)

	// ListByRole は指定ロールで指定ユーザーを参照するTodoを全件取得する。
	ListByRole(ctx context.Context, role model.TodoRole, userID uuid.UUID) ([]*model.Todo, error)
}

// querier は*sql.DBと*sql.Txの両方が満たすクエリ実行インターフェース。
// トランザクション内外で同じ読み取りヘルパーを使い回すために定義する。
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
