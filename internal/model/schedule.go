package model

import "time"

// Interval は [Start, End] の時間区間を表す。
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid は Start が End より前であるかを返す。
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps は2つの区間が重なるかを返す。両端を含めて判定するため、
// 端点が接しているだけの区間も重なりとみなす。
func (iv Interval) Overlaps(other Interval) bool {
	return !iv.Start.After(other.End) && !iv.End.Before(other.Start)
}

// Contains は other が iv に完全に含まれるかを返す。
func (iv Interval) Contains(other Interval) bool {
	return !iv.Start.After(other.Start) && !iv.End.Before(other.End)
}

// Schedule は講師が公開した予約可能な時間枠を表す。
type Schedule struct {
	ID        string
	TeacherID string
	StartTime time.Time
	EndTime   time.Time
	IsBooked  bool
	CreatedAt time.Time
}

// Interval は時間枠の区間を返す。
func (s *Schedule) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}
