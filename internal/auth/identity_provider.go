// Package auth は外部IDプロバイダーによる呼び出し元の身元解決を提供する。
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/s-nasu/task-track/internal/model"
)

// 外部IDプロバイダーが返すエラーコード
const (
	providerErrNotAuthorized = "NotAuthorizedException"
	providerErrUserNotFound  = "UserNotFoundException"
)

// Identity はIDプロバイダーから解決された呼び出し元の身元情報。
type Identity struct {
	UserID     string
	Attributes map[string]string
}

// IdentityProviderConfig はIdentityProviderの設定。
type IdentityProviderConfig struct {
	// BaseURL はIDプロバイダーAPIのベースURL。
	BaseURL string
	// UserPoolID は管理者ディレクトリ参照に使用するユーザープールID。
	UserPoolID string

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// IdentityProvider は外部IDプロバイダーのHTTPクライアント。
// アクセストークンからユーザーを特定し、管理者ディレクトリから
// ユーザー属性を取得する2段階の解決を行う。
type IdentityProvider struct {
	config IdentityProviderConfig
	client *http.Client
}

// NewIdentityProvider はIdentityProviderを生成する。
func NewIdentityProvider(config IdentityProviderConfig) *IdentityProvider {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &IdentityProvider{config: config, client: client}
}

// getUserResponse はトークン照会エンドポイントのレスポンス。
type getUserResponse struct {
	Username string `json:"username"`
}

// adminGetUserResponse は管理者ディレクトリ参照エンドポイントのレスポンス。
type adminGetUserResponse struct {
	Username       string `json:"username"`
	UserAttributes []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"user_attributes"`
}

// providerErrorResponse はIDプロバイダーのエラーレスポンス。
type providerErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResolveIdentity はBearerアクセストークンから呼び出し元の身元を解決する。
// プロバイダーの拒否は型付きエラーにマッピングする:
// NotAuthorizedException -> Unauthorized、UserNotFoundException -> NotFound、
// それ以外 -> InternalError相当。
func (p *IdentityProvider) ResolveIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	// 1. アクセストークンからユーザーIDを特定
	var userResp getUserResponse
	if err := p.doGet(ctx, "/user", accessToken, &userResp); err != nil {
		return nil, err
	}

	// 2. 管理者ディレクトリからユーザー属性を取得
	var adminResp adminGetUserResponse
	path := fmt.Sprintf("/pools/%s/users/%s", p.config.UserPoolID, userResp.Username)
	if err := p.doGet(ctx, path, accessToken, &adminResp); err != nil {
		return nil, err
	}

	attributes := make(map[string]string, len(adminResp.UserAttributes))
	for _, attr := range adminResp.UserAttributes {
		// カスタム属性のプレフィックスは取り除く
		attributes[strings.TrimPrefix(attr.Name, "custom:")] = attr.Value
	}

	return &Identity{
		UserID:     userResp.Username,
		Attributes: attributes,
	}, nil
}

// doGet はIDプロバイダーへのGETリクエストを実行し、レスポンスをoutにデコードする。
func (p *IdentityProvider) doGet(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create identity provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p.mapProviderError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity provider response: %w", err)
	}
	return nil
}

// mapProviderError はIDプロバイダーのエラーレスポンスを型付きエラーに変換する。
func (p *IdentityProvider) mapProviderError(resp *http.Response) error {
	var errResp providerErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	switch errResp.Code {
	case providerErrNotAuthorized:
		return &model.APIError{
			Code:     model.ErrCodeUnauthorized,
			Message:  "Not authorized",
			Category: "auth",
			Action:   "アクセストークンを確認してください。",
		}
	case providerErrUserNotFound:
		return &model.APIError{
			Code:     model.ErrCodeUserNotFound,
			Message:  "User not found",
			Category: "auth",
			Action:   "ユーザーがプールに存在するか確認してください。",
		}
	default:
		return fmt.Errorf("identity provider error: %s", errResp.Code)
	}
}
