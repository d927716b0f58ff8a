package model

import (
	"math"
	"time"
)

// Subject は講師が担当できる科目を表す。
type Subject string

// 定義済み科目
const (
	SubjectMath    Subject = "MATH"
	SubjectPhysics Subject = "PHYSICS"
	SubjectEnglish Subject = "ENGLISH"
	SubjectHistory Subject = "HISTORY"
)

// AllSubjects は定義済み科目の一覧を返す。
func AllSubjects() []Subject {
	return []Subject{SubjectMath, SubjectPhysics, SubjectEnglish, SubjectHistory}
}

// Valid は定義済みの科目かどうかを返す。
func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectPhysics, SubjectEnglish, SubjectHistory:
		return true
	}
	return false
}

// Teacher は講師プロフィールを表す。
// UserID ごとに高々1件存在する。
type Teacher struct {
	ID       string
	UserID   string
	Subjects []Subject
	// HourlyRate は1セント単位に丸めた時給。保存先は NUMERIC(10,2) で、float64 は受け渡し用。
	HourlyRate  float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaxHourlyRate は時給の上限。NUMERIC(10,2) に収まる最大値。
const MaxHourlyRate = 99999999.99

// NormalizeHourlyRate は時給を1セント単位に丸める。丸めた値が 0 から MaxHourlyRate の
// 範囲外の場合は false を返す。
func NormalizeHourlyRate(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	r := math.Round(v*100) / 100
	if r < 0 || r > MaxHourlyRate {
		return 0, false
	}
	return r, true
}

// HasSubject は講師が指定科目を担当しているかを返す。
func (t *Teacher) HasSubject(s Subject) bool {
	for _, sub := range t.Subjects {
		if sub == s {
			return true
		}
	}
	return false
}

// TeacherWithUser は講師一覧・詳細表示用に講師とユーザー情報、評価集計を結合したもの。
type TeacherWithUser struct {
	Teacher
	Name          string
	Email         string
	AverageRating float64
	ReviewCount   int
}

// TeacherProfileUpdate は講師プロフィールの部分更新内容を表す。
// nil のフィールドは変更しない。
type TeacherProfileUpdate struct {
	Subjects    []Subject
	HourlyRate  *float64
	Description *string
}
