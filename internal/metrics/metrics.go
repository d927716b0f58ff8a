// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSlotCreated()
	RecordBookingCreated()
	RecordBookingTransition(status string)
	RecordReservationConflict()
	RecordScheduleConflict()
	RecordReviewCreated()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	slotsCreated         prometheus.Counter
	bookingsCreated      prometheus.Counter
	bookingTransitions   *prometheus.CounterVec
	reservationConflicts prometheus.Counter
	scheduleConflicts    prometheus.Counter
	reviewsCreated       prometheus.Counter
	httpStatus           *prometheus.CounterVec
	requestLatency       prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		slotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_slots_created_total",
			Help: "登録された時間枠の合計数",
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_bookings_created_total",
			Help: "作成された予約の合計数",
		}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorhub_booking_transitions_total",
			Help: "遷移先の状態別の予約状態遷移数",
		}, []string{"status"}),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_slot_reservation_conflicts_total",
			Help: "空き枠の確保に失敗した予約リクエスト数",
		}),
		scheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_schedule_conflicts_total",
			Help: "生徒の既存予約と重なったため拒否された予約リクエスト数",
		}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_reviews_created_total",
			Help: "作成されたレビューの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorhub_http_responses_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutorhub_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.slotsCreated,
		c.bookingsCreated,
		c.bookingTransitions,
		c.reservationConflicts,
		c.scheduleConflicts,
		c.reviewsCreated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSlotCreated は時間枠の登録を記録する。
func (c *Collector) RecordSlotCreated() {
	c.slotsCreated.Inc()
}

// RecordBookingCreated は予約の作成を記録する。
func (c *Collector) RecordBookingCreated() {
	c.bookingsCreated.Inc()
}

// RecordBookingTransition は予約の状態遷移を遷移先の状態ごとに記録する。
func (c *Collector) RecordBookingTransition(status string) {
	c.bookingTransitions.WithLabelValues(status).Inc()
}

// RecordReservationConflict は空き枠の確保失敗を記録する。
func (c *Collector) RecordReservationConflict() {
	c.reservationConflicts.Inc()
}

// RecordScheduleConflict は生徒の予約重複による拒否を記録する。
func (c *Collector) RecordScheduleConflict() {
	c.scheduleConflicts.Inc()
}

// RecordReviewCreated はレビューの作成を記録する。
func (c *Collector) RecordReviewCreated() {
	c.reviewsCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordSlotCreated()                 {}
func (Nop) RecordBookingCreated()              {}
func (Nop) RecordBookingTransition(string)     {}
func (Nop) RecordReservationConflict()         {}
func (Nop) RecordScheduleConflict()            {}
func (Nop) RecordReviewCreated()               {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
