package model

import "time"

// 評価の範囲
const (
	MinRating = 1
	MaxRating = 5
)

// Review は受講完了後に生徒が講師に付けるレビューを表す。
// (StudentID, TeacherID) ごとに高々1件。
type Review struct {
	ID        string
	StudentID string
	TeacherID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ValidRating は評価値が許容範囲内かを返す。
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
