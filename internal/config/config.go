package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL,required"`

	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Sendgrid Sendgrid `envPrefix:"SENDGRID_"`
	Admin    Admin    `envPrefix:"ADMIN_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`

	SeedDemoMeals bool `env:"SEED_DEMO_MEALS" envDefault:"false"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY,required"`
	WebhookSecret string `env:"WEBHOOK_SECRET,required"`
	Currency      string `env:"CURRENCY" envDefault:"usd"`
}

type Sendgrid struct {
	APIKey    string `env:"API_KEY,required"`
	FromEmail string `env:"FROM_EMAIL" envDefault:"orders@example.com"`
	FromName  string `env:"FROM_NAME" envDefault:"Meal Storefront"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // mysql, sqlite
	URL    string `env:"URL" envDefault:"storefront.db"`
}

// empty URL falls back to an in-process event claim
type Redis struct {
	URL string `env:"URL"`
}

type Checkout struct {
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"5"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
