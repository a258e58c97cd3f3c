package main

import (
	"context"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Premm1996/Truehire-sub004/internal/api"
	"github.com/Premm1996/Truehire-sub004/internal/config"
	"github.com/Premm1996/Truehire-sub004/internal/exchange/consumer"
	"github.com/Premm1996/Truehire-sub004/internal/exchange/producer"
	"github.com/Premm1996/Truehire-sub004/internal/onboarding"
	eventsrepo "github.com/Premm1996/Truehire-sub004/internal/repository/events"
	onboardingrepo "github.com/Premm1996/Truehire-sub004/internal/repository/onboarding"
	payrollrepo "github.com/Premm1996/Truehire-sub004/internal/repository/payroll"
	questionsrepo "github.com/Premm1996/Truehire-sub004/internal/repository/questions"
	"github.com/Premm1996/Truehire-sub004/library/pg"
	"github.com/Premm1996/Truehire-sub004/library/yamlreader"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	cfg := MustNewConfig(parseFlags())

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	log.Info().Msgf("pg=%s", maskConn(cfg.Postgres.Conn.Value))
	log.Info().Msgf("kafka=%+v", cfg.Kafka.Bootstrap.Value)

	pgClient, err := pg.NewPG(rootCtx, cfg.Postgres.Conn.Value, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pgClient.Close()

	policy := onboarding.NewRetryPolicy(time.Duration(cfg.Onboarding.RetryCooldownDays.Value) * 24 * time.Hour)

	eventsRepo := eventsrepo.NewRepository(pgClient.Pool())
	stageRepo := onboardingrepo.NewRepository(pgClient.Pool(), policy)
	questionsRepo := questionsrepo.NewRepository(pgClient.Pool())
	payrollRepo := payrollrepo.NewRepository(pgClient.Pool())

	notifier, err := initNotificationProducer(cfg.Kafka)
	if err != nil {
		log.Fatal().Err(err).Msg("kafka producer init failed")
	}
	defer func() { _ = notifier.Close() }()

	engine := onboarding.NewEngine(onboarding.EngineDeps{
		Store:    stageRepo,
		Keys:     questionsRepo,
		Notifier: notifier,
		Policy:   policy,
		Logger:   log.Logger,
	})

	apiService := api.NewService(api.ServiceDeps{
		Port:          cfg.UserAPI.Port.Value,
		Engine:        engine,
		PayrollRepo:   payrollRepo,
		EventsRepo:    eventsRepo,
		QuestionsRepo: questionsRepo,
	})

	consumerAttendance := consumer.NewAttendanceRunner(
		cfg.Kafka.Bootstrap.Value,
		cfg.Kafka.Topics.Attendance.Value,
		"consumer_attendance",
		eventsRepo,
		payrollRepo,
		log.Logger,
	)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Msg("запуск HTTP API")
		if err := apiService.Start(gctx); err != nil {

			log.Error().Err(err).Msg("HTTP API завершился с ошибкой")

			return err
		}

		log.Info().Msg("HTTP API остановлен")

		return nil
	})

	// Consumer attendance
	group.Go(func() error {
		log.Info().Msg("запуск consumer_attendance")

		if err := consumerAttendance.Start(gctx); err != nil {
			log.Error().Err(err).Msg("consumer_attendance завершился с ошибкой")

			return err
		}

		log.Info().Msg("consumer_attendance остановлен")

		return nil
	})

	// упрощённая остановка (без таймаута)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = group.Wait()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("signal received, graceful shutdown...")
		<-done
		log.Info().Msg("all services stopped")
	case <-done:
		log.Info().Msg("all services stopped")
	}
}

func initNotificationProducer(kafkaConfig config.KafkaConfig) (*producer.OnboardingProducer, error) {
	sCfg := sarama.NewConfig()
	sCfg.Version = sarama.V3_3_2_0
	sCfg.ClientID = kafkaConfig.ProducerClientID.Value
	sCfg.Producer.Return.Successes = true
	sCfg.Producer.RequiredAcks = sarama.WaitForAll
	sCfg.Producer.Idempotent = true
	sCfg.Net.MaxOpenRequests = 1
	sCfg.Producer.Retry.Max = 5
	sCfg.Producer.Retry.Backoff = 200 * time.Millisecond

	sp, err := sarama.NewSyncProducer([]string{kafkaConfig.Bootstrap.Value}, sCfg)
	if err != nil {
		return nil, err
	}

	prod := producer.NewOnboardingProducer(
		sp,
		producer.Config{
			TopicNotifications: kafkaConfig.Topics.Notifications.Value,
			Source:             "onboarding-core",
		},
		log.Logger,
	)

	return prod, nil
}

func MustNewConfig(path string) *config.Config {
	cfg, err := yamlreader.NewConfig[config.Config](path)

	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("ошибка чтения конфигурации приложения")
		return nil
	}

	return cfg
}

// maskConn прячет пароль в DSN перед логированием.
func maskConn(conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return conn
	}
	return u.Redacted()
}

func parseFlags() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	godotenv.Load(".env")

	if configPath == "" {
		configPath = "config/application-local.yaml"
	}
	return configPath
}
