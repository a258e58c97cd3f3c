package config

import (
	"github.com/Premm1996/Truehire-sub004/library/pg"
	"github.com/Premm1996/Truehire-sub004/library/yamlenv"
)

type Config struct {
	Postgres   pg.PostgresConfig `yaml:"postgres"`
	Kafka      KafkaConfig       `yaml:"kafka"`
	UserAPI    ApiConfig         `yaml:"userAPI"`
	Onboarding OnboardingConfig  `yaml:"onboarding"`
}

type KafkaConfig struct {
	Bootstrap        *yamlenv.Env[string] `yaml:"bootstrap"`
	ProducerClientID *yamlenv.Env[string] `yaml:"producer_client_id"`
	Topics           struct {
		Notifications *yamlenv.Env[string] `yaml:"notifications"`
		Attendance    *yamlenv.Env[string] `yaml:"attendance"`
	} `yaml:"topics"`
}

type ApiConfig struct {
	Port *yamlenv.Env[int] `yaml:"port"`
}

type OnboardingConfig struct {
	// Окно блокировки после провала интервью, в днях. 0 — значение по умолчанию (30).
	RetryCooldownDays *yamlenv.Env[int] `yaml:"retry_cooldown_days"`
}
