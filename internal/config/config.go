package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Auth        Auth

	CatalogSeedPath string `env:"CATALOG_SEED_PATH" envDefault:"catalog.yaml"`

	BrainTree  Braintree  `envPrefix:"BRAINTREE_"`
	Odie       Odie       `envPrefix:"ODIE_"`
	LiveChat   LiveChat   `envPrefix:"LIVECHAT_"`
	Commission Commission `envPrefix:"COMMISSION_"`
	Chat       Chat       `envPrefix:"CHAT_"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"DATABASE_URL" envDefault:"agency-hub.db"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Odie struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://public-api.wordpress.com"`
	BotID      string `env:"BOT_ID" envDefault:"wpcom-support-chat"`
	Token      string `env:"TOKEN"`
}

type LiveChat struct {
	BaseApiURL string `env:"BASE_API_URL"`
	AppID      string `env:"APP_ID"`
	Key        string `env:"KEY"`
	Secret     string `env:"SECRET"`
	// WebhookSecret authenticates deliveries to the incoming message webhook.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// Commission holds the product family rules used by the commission engine.
type Commission struct {
	HostingFamilies       []string `env:"HOSTING_FAMILIES" envSeparator:"," envDefault:"wpcom-hosting,pressable-hosting"`
	ExcludedWooProducts   []string `env:"EXCLUDED_WOO_PRODUCTS" envSeparator:","`
	HostingPercentage     float64  `env:"HOSTING_PERCENTAGE" envDefault:"0.2"`
	ProductPercentage     float64  `env:"PRODUCT_PERCENTAGE" envDefault:"0.5"`
	UseDefaultWooDenylist bool     `env:"USE_DEFAULT_WOO_DENYLIST" envDefault:"true"`
}

type Chat struct {
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"1"`
	RateBurst     int     `env:"RATE_BURST" envDefault:"5"`
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
