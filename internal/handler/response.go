// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/middleware"
	"github.com/hitoshi/tutorhub/internal/model"
)

// dateLayout は date クエリパラメータの形式。
const dateLayout = "2006-01-02"

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, middleware.StatusCodeFor(apiErr.Code), apiErr)
}

// validID はIDがUUID形式かを返す。
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// pathID はURLパスの id パラメータを返す。
// UUID形式でない場合は該当なしとして notFound のエラーを書き込み、false を返す。
func pathID(w http.ResponseWriter, r *http.Request, notFound func(id string) *model.APIError) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		writeAPIErrorResponse(w, notFound(id))
		return "", false
	}
	return id, true
}

// userNotFound は NewUserNotFoundError を pathID の引数の形に合わせる。
func userNotFound(string) *model.APIError {
	return model.NewUserNotFoundError()
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーはログに記録し、内部エラーとして返す。
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, apiErr)
		return
	}

	logger.Error("internal server error", zap.Error(err))
	middleware.WriteInternalServerError(w)
}

// decodeJSON はリクエストボディをデコードする。失敗した場合は400を書き込み false を返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, model.NewInvalidRequestError())
		return false
	}
	return true
}

// principal は認証主体を取得する。存在しない場合は401を書き込み nil を返す。
func principal(w http.ResponseWriter, r *http.Request) *model.Principal {
	p, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, model.NewUnauthorizedError())
		return nil
	}
	return p
}

// parsePage は page, limit クエリパラメータを解析する。
// 未指定の値はゼロのまま返し、既定値の補正はサービス層に任せる。
func parsePage(r *http.Request) (model.Page, error) {
	var p model.Page
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"limit", &p.Limit},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return model.Page{}, model.NewValidationError(f.name + " must be a positive integer")
		}
		*f.dst = n
	}
	return p, nil
}

// parseDay は date クエリパラメータ（YYYY-MM-DD）を解析する。未指定の場合は today を返す。
func parseDay(r *http.Request, today time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		y, m, d := today.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError("date must be in YYYY-MM-DD format")
	}
	return day, nil
}

// parseTime はRFC3339形式の時刻を解析する。
func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError(field + " must be an RFC3339 timestamp")
	}
	return t, nil
}
