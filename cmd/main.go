package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	createServiceHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_service"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getServiceHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_service"
	updateBookingStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_booking_status"
	updateServiceHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_service"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	kafkaBroker "github.com/m04kA/SMC-SchedulingService/internal/infra/broker/kafka"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
	notificationServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/notificationservice"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	notificationsService "github.com/m04kA/SMC-SchedulingService/internal/service/notifications"
	servicesService "github.com/m04kA/SMC-SchedulingService/internal/service/services"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from config.toml")

	// Зона планирования, валидируется в config.Load
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal("Invalid scheduling timezone: %v", err)
	}
	log.Info("Scheduling timezone=%s, enforce_slot_alignment=%t", loc, cfg.Scheduling.EnforceSlotAlignment)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// При выключенных метриках обёртка работает как прокси
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	if cfg.Metrics.Enabled {
		log.Info("Database metrics collection started")
	}

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	serviceRepository := serviceRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем доставку уведомлений
	notifier, closeNotifier, err := newNotifier(cfg.Notifications, log)
	if err != nil {
		log.Fatal("Failed to initialize notifications: %v", err)
	}
	defer closeNotifier()

	dispatcher := notificationsService.NewDispatcher(
		notifier,
		time.Duration(cfg.Notifications.Timeout)*time.Second,
		log,
	)
	log.Info("Notifications dispatcher initialized (driver=%s)", cfg.Notifications.Driver)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		serviceRepository,
		txMgr,
		loc,
		log,
	)
	servicesSvc := servicesService.NewService(
		serviceRepository,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		serviceRepository,
		bookingRepository,
		txMgr,
		metricsCollector,
		createBookingUC.Options{
			Location:             loc,
			EnforceSlotAlignment: cfg.Scheduling.EnforceSlotAlignment,
		},
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		serviceRepository,
		bookingRepository,
		loc,
		metricsCollector,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, dispatcher, loc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, dispatcher, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, dispatcher, log)
	getService := getServiceHandler.NewHandler(servicesSvc, log)
	createService := createServiceHandler.NewHandler(servicesSvc, log)
	updateService := updateServiceHandler.NewHandler(servicesSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	public := api.PathPrefix("").Subrouter()

	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		public.Use(middleware.RateLimit(
			middleware.NewRedisCounter(rdb),
			middleware.RateLimitConfig{
				Limit:    cfg.RateLimit.Limit,
				Window:   cfg.RateLimit.Window(),
				Prefix:   cfg.Metrics.ServiceName + ":rl",
				FailOpen: cfg.RateLimit.FailOpen,
			},
			log,
		))
		log.Info("Rate limiting enabled (redis=%s, limit=%d per %ds, fail_open=%t)",
			cfg.RateLimit.RedisAddr, cfg.RateLimit.Limit, cfg.RateLimit.WindowSeconds, cfg.RateLimit.FailOpen)
	}

	// Доступные слоты услуги на дату
	public.HandleFunc("/services/{serviceId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Получение услуги
	public.HandleFunc("/services/{serviceId}", getService.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Услуги (для провайдеров) ---
	protected.HandleFunc("/services", createService.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/services/{serviceId}", updateService.Handle).Methods(http.MethodPut)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся уведомлений, отправленных до остановки сервера
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn("Pending notifications were not delivered before shutdown: %v", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}

// newNotifier выбирает транспорт уведомлений по notifications.driver
func newNotifier(cfg config.NotificationsConfig, log *logger.Logger) (notificationsService.Notifier, func(), error) {
	switch cfg.Driver {
	case config.NotificationDriverHTTP:
		client := notificationServiceClient.NewClient(
			cfg.URL,
			time.Duration(cfg.Timeout)*time.Second,
			log,
		)
		log.Info("NotificationService client initialized (url=%s, timeout=%ds)", cfg.URL, cfg.Timeout)
		return client, func() {}, nil

	case config.NotificationDriverKafka:
		publisher, err := kafkaBroker.NewPublisher(kafkaBroker.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("Kafka publisher initialized (brokers=%s, topic=%s)", cfg.KafkaBrokers, cfg.Topic)
		return publisher, func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close kafka publisher: %v", err)
			}
		}, nil

	default:
		return notificationsService.NopNotifier{}, func() {}, nil
	}
}
