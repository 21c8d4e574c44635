package config

import (
	"os"
	"strconv"
	"strings"
)

// Config agrupa toda la configuración por env para que main quede limpio.
type Config struct {
	Addr string

	// Postgres. Vacío = repos in-memory (modo dev).
	DBDSN string

	// HS256 signing key para verificar bearer tokens. Vacío = modo dev
	// (auth por header X-Debug-User-ID).
	JWTSigningKey string

	// Notifier: si hay brokers, se publica a Kafka; si no, y hay
	// WebhookURL, POST JSON a ese endpoint; si no, log-only.
	KafkaBrokers []string
	KafkaTopic   string
	WebhookURL   string

	// Attachments: si hay bucket, S3; si no, disco local.
	S3Bucket   string
	UploadsDir string

	// Hora local (0-23) a la que corre el batch diario de recordatorios.
	ReminderHour int
}

func FromEnv() Config {
	cfg := Config{
		Addr:          ":8080",
		DBDSN:         os.Getenv("DB_DSN"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		KafkaTopic:    "pet-wellness.reminders",
		UploadsDir:    "uploads",
		ReminderHour:  9,
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); v != "" {
		cfg.KafkaTopic = v
	}
	cfg.WebhookURL = strings.TrimSpace(os.Getenv("REMINDER_WEBHOOK_URL"))
	cfg.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if v := strings.TrimSpace(os.Getenv("UPLOADS_DIR")); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("REMINDER_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			cfg.ReminderHour = h
		}
	}

	return cfg
}
