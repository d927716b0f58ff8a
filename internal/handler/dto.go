package handler

import (
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	return results
}

// teacherResponse は講師情報のAPIレスポンス。
type teacherResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email"`
	Subjects      []string  `json:"subjects"`
	HourlyRate    float64   `json:"hourly_rate"`
	Description   string    `json:"description"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTeacherResponse(t *model.TeacherWithUser) teacherResponse {
	subjects := make([]string, len(t.Subjects))
	for i, s := range t.Subjects {
		subjects[i] = string(s)
	}
	return teacherResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Name:          t.Name,
		Email:         t.Email,
		Subjects:      subjects,
		HourlyRate:    t.HourlyRate,
		Description:   t.Description,
		AverageRating: t.AverageRating,
		ReviewCount:   t.ReviewCount,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toTeacherResponses(teachers []model.TeacherWithUser) []teacherResponse {
	results := make([]teacherResponse, len(teachers))
	for i := range teachers {
		results[i] = toTeacherResponse(&teachers[i])
	}
	return results
}

// scheduleResponse は時間枠のAPIレスポンス。
type scheduleResponse struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
}

func toScheduleResponse(s *model.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:        s.ID,
		TeacherID: s.TeacherID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsBooked:  s.IsBooked,
	}
}

func toScheduleResponses(slots []*model.Schedule) []scheduleResponse {
	results := make([]scheduleResponse, len(slots))
	for i, s := range slots {
		results[i] = toScheduleResponse(s)
	}
	return results
}

// bookingResponse は予約のAPIレスポンス。
type bookingResponse struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	TeacherID  string    `json:"teacher_id"`
	ScheduleID *string   `json:"schedule_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        b.ID,
		StudentID: b.StudentID,
		TeacherID: b.TeacherID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.ScheduleID != "" {
		id := b.ScheduleID
		resp.ScheduleID = &id
	}
	return resp
}

func toBookingResponses(bookings []*model.Booking) []bookingResponse {
	results := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		results[i] = toBookingResponse(b)
	}
	return results
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		StudentID: rv.StudentID,
		TeacherID: rv.TeacherID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func toReviewResponses(reviews []*model.Review) []reviewResponse {
	results := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		results[i] = toReviewResponse(rv)
	}
	return results
}

// profileUpdateRequest は講師プロフィール部分更新リクエストのボディ。
// 省略したフィールドは変更しない。
type profileUpdateRequest struct {
	Subjects    *[]string `json:"subjects"`
	HourlyRate  *float64  `json:"hourly_rate"`
	Description *string   `json:"description"`
}

func (req profileUpdateRequest) toUpdate() model.TeacherProfileUpdate {
	upd := model.TeacherProfileUpdate{
		HourlyRate:  req.HourlyRate,
		Description: req.Description,
	}
	if req.Subjects != nil {
		upd.Subjects = make([]model.Subject, len(*req.Subjects))
		for i, s := range *req.Subjects {
			upd.Subjects[i] = model.Subject(s)
		}
	}
	return upd
}

// deletedResponse は削除成功時のレスポンス。
type deletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
