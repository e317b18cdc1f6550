package infrastructures

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	RedisAddress     string        `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RateLimitPrefix  string        `envconfig:"RATE_LIMIT_PREFIX" default:"travel-checkout"`
	ConnectBaseURL   string        `envconfig:"CONNECT_BASE_URL" required:"true"`
	BillingBaseURL   string        `envconfig:"BILLING_BASE_URL"`
	BillingSecretKey string        `envconfig:"BILLING_SECRET_KEY"`
	RabbitMQURL      string        `envconfig:"RABBITMQ_URL"`
	EventExchange    string        `envconfig:"EVENT_EXCHANGE" default:"checkout.events"`
	GiftCardHoldTTL  time.Duration `envconfig:"GIFT_CARD_HOLD_TTL" default:"30m"`
	TxRetryAttempts  uint          `envconfig:"TX_RETRY_ATTEMPTS" default:"3"`
}

func LoadConfig() *AppConfig {
	godotenv.Load()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	return &cfg
}
