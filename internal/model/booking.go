package model

import "time"

// BookingStatus は予約の状態を表す。
type BookingStatus string

// 予約状態
const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Valid は定義済みの状態かどうかを返す。
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal は終端状態（CANCELLED / COMPLETED）かどうかを返す。
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// ReleasesSlot はこの状態への遷移で時間枠を解放するかを返す。
func (s BookingStatus) ReleasesSlot() bool {
	return s.Terminal()
}

// bookingTransitions は許可された状態遷移の表。
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingCompleted},
	BookingConfirmed: {BookingCancelled, BookingCompleted},
}

// CanTransition は from から to への遷移が許可されているかを返す。
func CanTransition(from, to BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Booking は生徒による時間枠の予約を表す。
// ScheduleID は予約時に確保した時間枠を指し、枠が削除されると空になる。
type Booking struct {
	ID         string
	StudentID  string
	TeacherID  string
	ScheduleID string
	StartTime  time.Time
	EndTime    time.Time
	Status     BookingStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Interval は予約の区間を返す。
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}
