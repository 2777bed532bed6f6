package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Review request lifecycle metrics
var (
	// ReviewRequestsCreatedTotal - количество созданных review requests
	ReviewRequestsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_requests_created_total",
		Help: "Total number of review requests created",
	})

	// ReviewRequestsPublishedTotal - количество публикаций черновиков
	ReviewRequestsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_requests_published_total",
		Help: "Total number of review request drafts published",
	})

	// ReviewRequestsClosedTotal - закрытия по типу (submitted/discarded)
	ReviewRequestsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_requests_closed_total",
		Help: "Total number of review requests closed by close type",
	}, []string{"status"})

	// ReviewRequestsReopenedTotal - переоткрытия по исходному статусу
	ReviewRequestsReopenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_requests_reopened_total",
		Help: "Total number of review requests reopened by previous status",
	}, []string{"from"})

	// ReviewRequestsDeletedTotal - количество удалённых review requests
	ReviewRequestsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_requests_deleted_total",
		Help: "Total number of review requests deleted",
	})

	// ChangeDescriptionFields - распределение количества изменённых полей на публикацию
	ChangeDescriptionFields = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "change_description_fields",
		Help:    "Distribution of changed fields count per published change description",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})

	// DefaultReviewersAdded - сколько ревьюверов добавили правила при загрузке diff
	DefaultReviewersAdded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "default_reviewers_added",
		Help:    "Distribution of default reviewers (people and groups) added per diff upload",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	// ReviewsPublishedTotal - опубликованные ревью и ответы
	ReviewsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_published_total",
		Help: "Total number of reviews published by kind",
	}, []string{"kind"})

	// EventsDispatchedTotal - доставка событий по sink и результату
	EventsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dispatched_total",
		Help: "Total number of lifecycle events delivered to sinks",
	}, []string{"event", "sink", "status"})
)

// Counter store metrics
var (
	// GroupIncomingRequests - текущее значение incoming счётчика группы
	GroupIncomingRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "group_incoming_requests",
		Help: "Incoming review request count by group",
	}, []string{"group_id"})

	// CounterDriftTotal - расхождения, исправленные пересчётом
	CounterDriftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counter_drift_total",
		Help: "Total number of cached counters corrected by recompute",
	}, []string{"counter"})

	// ReconcileDuration - время полного пересчёта счётчиков
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counter_reconcile_duration_seconds",
		Help:    "Duration of full counter reconciliation in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Changeset source metrics
var (
	// ChangesetFetchDuration - время запроса к внешней системе
	ChangesetFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "changeset_fetch_duration_seconds",
		Help:    "Duration of changeset fetch from the source system in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

// HTTP Metrics
var (
	// HTTPRequestsTotal - общее количество HTTP запросов
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration - время обработки запроса
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP request in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Database Metrics
var (
	// DBTransactionDuration - время выполнения транзакций
	DBTransactionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "db_transaction_duration_seconds",
		Help:    "Duration of database transaction in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DBTransactionTotal - количество транзакций
	DBTransactionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_transaction_total",
		Help: "Total number of database transactions",
	}, []string{"status"})

	// DBConnectionPoolActive - активные соединения
	DBConnectionPoolActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connection_pool_active",
		Help: "Number of active database connections",
	})

	// DBConnectionPoolIdle - idle соединения
	DBConnectionPoolIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connection_pool_idle",
		Help: "Number of idle database connections",
	})
)

// Error Metrics
var (
	// ErrorsTotal - количество ошибок
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Total number of errors",
	}, []string{"error_type", "layer"})

	// DomainErrorsTotal - доменные ошибки
	DomainErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_errors_total",
		Help: "Total number of domain errors",
	}, []string{"error_code"})
)

// Service Layer Metrics
var (
	// ServiceOperationDuration - время операций сервиса
	ServiceOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "service_operation_duration_seconds",
		Help:    "Duration of service operation in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
