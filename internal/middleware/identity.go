package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/s-nasu/task-track/internal/auth"
	"github.com/s-nasu/task-track/internal/model"
)

// contextKey はコンテキスト値のキー型。他パッケージとの衝突を避ける。
type contextKey string

const identityContextKey contextKey = "identity"

// IdentityResolver はアクセストークンから身元を解決するインターフェース。
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (*auth.Identity, error)
}

// ContextWithIdentity は解決済みの身元をコンテキストに格納する。
func ContextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext はコンテキストから解決済みの身元を取り出す。
func IdentityFromContext(ctx context.Context) (*auth.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, errors.New("identity not found in context")
	}
	return identity, nil
}

// NewIdentityMiddleware は管理系エンドポイント用の身元解決ミドルウェアを返す。
// AuthorizationヘッダーのBearerアクセストークンを外部IDプロバイダーに
// 照会し、解決した身元をリクエストコンテキストに格納する。
// プロバイダーの拒否は401/404/500にマッピングされる。
func NewIdentityMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, accessToken, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || scheme != "Bearer" {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     model.ErrCodeUnauthorized,
					Message:  "Invalid authorization scheme",
					Category: "auth",
					Action:   "Bearer形式のアクセストークンを設定してください。",
				})
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), accessToken)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, identityErrorStatus(apiErr), apiErr)
					return
				}
				slog.Error("identity resolution failed", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// identityErrorStatus はIDプロバイダー由来のAPIErrorをHTTPステータスに変換する。
func identityErrorStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
