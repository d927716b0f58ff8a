package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/metrics"
	"github.com/hitoshi/tutorhub/internal/middleware"
	"github.com/hitoshi/tutorhub/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *zap.Logger
	Metrics           metrics.MetricsCollector
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AuthService    AuthServiceInterface
	BookingService BookingServiceInterface
	TeacherService TeacherServiceInterface
	ReviewService  ReviewServiceInterface
	AdminService   AdminServiceInterface

	// 運用
	Pinger         Pinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General) → RequireRoles
//
// 書き込み系のルートには RateLimit(Write) を追加で適用する。
// /health と /metrics は認証不要でレート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger, collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, logger)
	bookingHandler := NewBookingHandler(deps.BookingService, logger)
	teacherHandler := NewTeacherHandler(deps.TeacherService, logger)
	reviewHandler := NewReviewHandler(deps.ReviewService, logger)
	adminHandler := NewAdminHandler(deps.AdminService, logger)

	rl := deps.RateLimiter
	write := rl.WriteMiddleware()
	authenticate := middleware.NewAuthMiddleware(deps.TokenVerifier)

	// --- 運用エンドポイント ---
	if deps.Pinger != nil {
		r.Get("/health", NewHealthHandler(deps.Pinger, logger))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(rl.GeneralMiddleware())

		r.With(write).Post("/auth/register", authHandler.Register)
		r.With(write).Post("/auth/login", authHandler.Login)
		r.Get("/teachers", teacherHandler.List)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General) → RequireRoles
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(rl.GeneralMiddleware())

		r.Get("/auth/me", authHandler.Me)

		// 講師カタログ（ロール不問）
		r.Get("/teachers/{id}", teacherHandler.Get)
		r.Get("/teachers/{id}/schedule", teacherHandler.Schedule)
		r.Get("/teachers/{id}/reviews", reviewHandler.ListForTeacher)

		// 予約の状態変更は予約した生徒と担当講師が行う
		r.With(middleware.RequireRoles(model.RoleStudent, model.RoleTeacher), write).
			Patch("/bookings/{id}", bookingHandler.UpdateStatus)

		// 生徒
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleStudent))

			r.Get("/bookings", bookingHandler.ListMine)
			r.With(write).Post("/bookings", bookingHandler.Create)
			r.With(write).Post("/reviews", reviewHandler.Create)
		})

		// 講師
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleTeacher))

			r.Get("/teachers/me", teacherHandler.Me)
			r.With(write).Patch("/teachers/me", teacherHandler.UpdateMe)
			r.Get("/teachers/me/bookings", bookingHandler.ListForTeacher)
			r.Get("/teachers/me/reviews", teacherHandler.MyReviews)

			r.Get("/teachers/schedule", teacherHandler.MySchedule)
			r.With(write).Post("/teachers/schedule", teacherHandler.AddSlot)
			r.With(write).Delete("/teachers/schedule/{id}", teacherHandler.DeleteSlot)
		})

		// 管理者
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleAdmin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.With(write).Post("/", adminHandler.CreateUser)
				r.Get("/{id}", adminHandler.GetUser)
				r.With(write).Delete("/{id}", adminHandler.DeleteUser)
			})

			r.Route("/teachers", func(r chi.Router) {
				r.Get("/", adminHandler.ListTeachers)
				r.With(write).Patch("/{id}", adminHandler.UpdateTeacher)
				r.With(write).Delete("/{id}", adminHandler.DeleteTeacher)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", adminHandler.ListBookings)
				r.With(write).Delete("/{id}", adminHandler.DeleteBooking)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", adminHandler.ListReviews)
				r.With(write).Delete("/{id}", adminHandler.DeleteReview)
			})
		})
	})

	return r
}
