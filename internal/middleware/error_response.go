package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/tutorhub/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// StatusCodeFor はエラーコードに対応するHTTPステータスコードを返す。
func StatusCodeFor(code string) int {
	switch code {
	case model.ErrCodeNotFound, model.ErrCodeUserNotFound, model.ErrCodeTeacherNotFound,
		model.ErrCodeScheduleNotFound, model.ErrCodeBookingNotFound, model.ErrCodeReviewNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeValidation, model.ErrCodeInvalidRange,
		model.ErrCodePastSlot, model.ErrCodeOverlap, model.ErrCodeSlotUnavailable,
		model.ErrCodeSlotBooked, model.ErrCodeScheduleConflict, model.ErrCodeInvalidTransition,
		model.ErrCodeInvalidRating, model.ErrCodeInvalidSubject, model.ErrCodeNotEligible:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeDuplicateEmail, model.ErrCodeAlreadyReviewed:
		return http.StatusConflict
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
