package middleware

import (
	"net/http"

	"github.com/s-nasu/task-track/internal/model"
)

// NewAuthMiddleware は静的なBearer認証ミドルウェアを返す。
// Authorizationヘッダーが欠落している場合は401、設定されたトークンと
// 一致しない場合は403を返す。
func NewAuthMiddleware(expectedToken string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if header != expectedToken {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
