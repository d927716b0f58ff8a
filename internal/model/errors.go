// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, schedule, booking, review, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeTeacherNotFound    = "TEACHER_NOT_FOUND"
	ErrCodeScheduleNotFound   = "SCHEDULE_NOT_FOUND"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeReviewNotFound     = "REVIEW_NOT_FOUND"
	ErrCodeInvalidRange       = "INVALID_RANGE"
	ErrCodePastSlot           = "PAST_SLOT"
	ErrCodeOverlap            = "SCHEDULE_OVERLAP"
	ErrCodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	ErrCodeSlotBooked         = "SLOT_BOOKED"
	ErrCodeScheduleConflict   = "SCHEDULE_CONFLICT"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeInvalidSubject     = "INVALID_SUBJECT"
	ErrCodeNotEligible        = "NOT_ELIGIBLE"
	ErrCodeAlreadyReviewed    = "ALREADY_REVIEWED"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// IsCode は err が指定コードの APIError かどうかを返す。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストの形式が不正です。",
		Category: "validation",
		Action:   "リクエストボディをJSON形式で送信してください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTeacherNotFoundError は講師が見つからない場合のエラーを生成する。
func NewTeacherNotFoundError(teacherID string) *APIError {
	return &APIError{
		Code:     ErrCodeTeacherNotFound,
		Message:  fmt.Sprintf("指定された講師が見つかりません: %s", teacherID),
		Category: "booking",
		Action:   "講師IDを確認してください。",
	}
}

// NewScheduleNotFoundError は時間枠が見つからない場合のエラーを生成する。
func NewScheduleNotFoundError(scheduleID string) *APIError {
	return &APIError{
		Code:     ErrCodeScheduleNotFound,
		Message:  fmt.Sprintf("指定された時間枠が見つかりません: %s", scheduleID),
		Category: "schedule",
		Action:   "時間枠IDを確認してください。",
	}
}

// NewBookingNotFoundError は予約が見つからない場合のエラーを生成する。
func NewBookingNotFoundError(bookingID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  fmt.Sprintf("指定された予約が見つかりません: %s", bookingID),
		Category: "booking",
		Action:   "予約IDを確認してください。",
	}
}

// NewReviewNotFoundError はレビューが見つからない場合のエラーを生成する。
func NewReviewNotFoundError(reviewID string) *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("指定されたレビューが見つかりません: %s", reviewID),
		Category: "review",
		Action:   "レビューIDを確認してください。",
	}
}

// NewInvalidRangeError は開始時刻が終了時刻以降の場合のエラーを生成する。
func NewInvalidRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRange,
		Message:  "開始時刻は終了時刻より前である必要があります。",
		Category: "validation",
		Action:   "開始時刻と終了時刻を確認してください。",
	}
}

// NewPastSlotError は過去の時間枠を登録しようとした場合のエラーを生成する。
func NewPastSlotError() *APIError {
	return &APIError{
		Code:     ErrCodePastSlot,
		Message:  "過去の時間枠は登録できません。",
		Category: "schedule",
		Action:   "現在以降の時刻を指定してください。",
	}
}

// NewOverlapError は既存の時間枠と重なる場合のエラーを生成する。
func NewOverlapError() *APIError {
	return &APIError{
		Code:     ErrCodeOverlap,
		Message:  "既存の時間枠と重なっています。",
		Category: "schedule",
		Action:   "重ならない時間帯を指定してください。",
	}
}

// NewSlotUnavailableError は指定区間を含む空き枠がない場合のエラーを生成する。
func NewSlotUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotUnavailable,
		Message:  "指定された時間帯に予約可能な枠がありません。",
		Category: "booking",
		Action:   "講師のスケジュールを確認し、空いている時間帯を選択してください。",
	}
}

// NewSlotBookedError は予約済みの時間枠を削除しようとした場合のエラーを生成する。
func NewSlotBookedError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotBooked,
		Message:  "予約済みの時間枠は削除できません。",
		Category: "schedule",
		Action:   "予約がキャンセルまたは完了されてから削除してください。",
	}
}

// NewScheduleConflictError は生徒の既存予約と重なる場合のエラーを生成する。
func NewScheduleConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeScheduleConflict,
		Message:  "既存の予約と時間が重なっています。",
		Category: "booking",
		Action:   "別の時間帯を選択してください。",
	}
}

// NewInvalidTransitionError は許可されていない状態遷移のエラーを生成する。
func NewInvalidTransitionError(from, to BookingStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("予約状態を %s から %s に変更できません。", from, to),
		Category: "booking",
		Action:   "予約の現在の状態を確認してください。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価です: %d", rating),
		Category: "validation",
		Action:   fmt.Sprintf("評価は%dから%dの整数で指定してください。", MinRating, MaxRating),
	}
}

// NewInvalidSubjectError は未定義の科目が指定された場合のエラーを生成する。
func NewInvalidSubjectError(subject string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubject,
		Message:  fmt.Sprintf("無効な科目です: %s", subject),
		Category: "validation",
		Action:   "科目には MATH、PHYSICS、ENGLISH、HISTORY のいずれかを指定してください。",
	}
}

// NewNotEligibleError は完了済みの予約がない講師をレビューしようとした場合のエラーを生成する。
func NewNotEligibleError() *APIError {
	return &APIError{
		Code:     ErrCodeNotEligible,
		Message:  "この講師のレッスンを完了していないため、レビューできません。",
		Category: "review",
		Action:   "レッスン完了後にレビューしてください。",
	}
}

// NewAlreadyReviewedError は同じ講師を再度レビューしようとした場合のエラーを生成する。
func NewAlreadyReviewedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyReviewed,
		Message:  "この講師は既にレビュー済みです。",
		Category: "review",
		Action:   "レビューは講師ごとに1件までです。",
	}
}

// NewDuplicateEmailError はメールアドレスが登録済みの場合のエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報が一致しない場合のエラーを生成する。
// ユーザーの存在有無を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "操作対象と権限を確認してください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "指定された時間が経過してから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
