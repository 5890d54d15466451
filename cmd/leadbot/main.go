package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/relomove/leadbot/internal/api"
	"github.com/relomove/leadbot/internal/bot"
	"github.com/relomove/leadbot/internal/botconfig"
	"github.com/relomove/leadbot/internal/engine"
	"github.com/relomove/leadbot/internal/geo"
	"github.com/relomove/leadbot/internal/messaging"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/notify"
	"github.com/relomove/leadbot/internal/pricing"
	"github.com/relomove/leadbot/internal/store"
	"github.com/relomove/leadbot/internal/translate"
	"github.com/relomove/leadbot/internal/util"
)

// Default configuration constants
const (
	// DefaultAPIAddr is the default listen address for the webhook server.
	DefaultAPIAddr = ":8080"
	// DefaultDBFileName is the default SQLite database filename.
	DefaultDBFileName = "leadbot.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	registry, err := buildRegistry(flags)
	if err != nil {
		slog.Error("Failed to build bot registry", "error", err)
		os.Exit(1)
	}

	engineOpts := []engine.EngineOption{
		engine.WithDefaultBotType(models.BotTypeMoving),
		engine.WithSessionTTL(time.Duration(*flags.sessionTTLHrs) * time.Hour),
	}
	serverOpts := buildServerOptions(flags)

	notifier, senderOpts, err := buildMessaging(flags)
	if err != nil {
		slog.Error("Failed to initialize messaging", "error", err)
		os.Exit(1)
	}
	serverOpts = append(serverOpts, senderOpts...)
	if notifier != nil {
		engineOpts = append(engineOpts, engine.WithNotifier(notifier))
	}

	eng := engine.New(st, registry, engineOpts...)
	server := api.NewServer(eng, st, serverOpts...)

	slog.Info("Bootstrapping leadbot", "addr", *flags.apiAddr, "store", store.DetectDSNType(*flags.dbDSN))
	if err := server.Run(ctx); err != nil {
		slog.Error("leadbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("leadbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string
	APIAddr        string
	DefaultTenant  string
	OpenAIKey      string
	OperatorChat   string
	OperatorLang   string
	MetaVerify     string
	APIKey         string
	TelegramToken  string
	ShowEstimates  bool
	SessionTTLHrs  int
	EnableTwilio   bool
	EnableTelegram bool
	EnableMeta     bool
}

// Flags holds command line flag values
type Flags struct {
	dbDSN         *string
	apiAddr       *string
	defaultTenant *string
	openaiKey     *string
	operatorChat  *string
	operatorLang  *string
	metaVerify    *string
	apiKey        *string
	telegramToken *string
	showEstimates *bool
	sessionTTLHrs *int
	enableTwilio  *bool
	enableTG      *bool
	enableMeta    *bool
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LEADBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		APIAddr:        util.EnvOrDefault("API_ADDR", DefaultAPIAddr),
		DefaultTenant:  util.EnvOrDefault("DEFAULT_TENANT", "default"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OperatorChat:   os.Getenv("OPERATOR_CHAT_ID"),
		OperatorLang:   util.EnvOrDefault("OPERATOR_LANGUAGE", "ru"),
		MetaVerify:     os.Getenv("META_VERIFY_TOKEN"),
		APIKey:         os.Getenv("LEADBOT_API_KEY"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		ShowEstimates:  util.ParseBoolEnv("SHOW_ESTIMATES", true),
		SessionTTLHrs:  72,
		EnableTwilio:   util.ParseBoolEnv("ENABLE_TWILIO", false),
		EnableTelegram: util.ParseBoolEnv("ENABLE_TELEGRAM", false),
		EnableMeta:     util.ParseBoolEnv("ENABLE_META", false),
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"API_ADDR", config.APIAddr,
		"DEFAULT_TENANT", config.DefaultTenant,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPERATOR_CHAT_ID_SET", config.OperatorChat != "",
		"SHOW_ESTIMATES", config.ShowEstimates)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN: postgres://, redis://, a SQLite path, or empty for in-memory (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "webhook server address (overrides $API_ADDR)"),
		defaultTenant: flag.String("default-tenant", config.DefaultTenant, "tenant id used when a webhook carries none (overrides $DEFAULT_TENANT)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for summary translation (overrides $OPENAI_API_KEY)"),
		operatorChat:  flag.String("operator-chat", config.OperatorChat, "chat id that receives lead summaries (overrides $OPERATOR_CHAT_ID)"),
		operatorLang:  flag.String("operator-lang", config.OperatorLang, "language lead summaries are translated into (overrides $OPERATOR_LANGUAGE)"),
		metaVerify:    flag.String("meta-verify-token", config.MetaVerify, "Meta webhook verification token (overrides $META_VERIFY_TOKEN)"),
		apiKey:        flag.String("api-key", config.APIKey, "API key guarding the operator endpoints (overrides $LEADBOT_API_KEY)"),
		telegramToken: flag.String("telegram-token", config.TelegramToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		showEstimates: flag.Bool("show-estimates", config.ShowEstimates, "show computed price ranges to users (overrides $SHOW_ESTIMATES)"),
		sessionTTLHrs: flag.Int("session-ttl-hours", config.SessionTTLHrs, "idle session lifetime in hours, enforced for every store backend"),
		enableTwilio:  flag.Bool("enable-twilio", config.EnableTwilio, "enable the Twilio WhatsApp adapter (overrides $ENABLE_TWILIO)"),
		enableTG:      flag.Bool("enable-telegram", config.EnableTelegram, "enable the Telegram adapter (overrides $ENABLE_TELEGRAM)"),
		enableMeta:    flag.Bool("enable-meta", config.EnableMeta, "enable the Meta Cloud API adapter (overrides $ENABLE_META)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"defaultTenant", *flags.defaultTenant,
		"showEstimates", *flags.showEstimates,
		"twilio", *flags.enableTwilio,
		"telegram", *flags.enableTG,
		"meta", *flags.enableMeta)

	return flags
}

// buildStore picks the backend from the DSN shape.
func buildStore(ctx context.Context, flags Flags) (store.Store, error) {
	ttl := time.Duration(*flags.sessionTTLHrs) * time.Hour
	switch store.DetectDSNType(*flags.dbDSN) {
	case "postgres":
		return store.NewPostgresStore(ctx, store.WithPostgresDSN(*flags.dbDSN))
	case "redis":
		return store.NewRedisStore(ctx,
			store.WithRedisURL(*flags.dbDSN),
			store.WithRedisSessionTTL(ttl))
	case "memory":
		slog.Warn("buildStore: using in-memory store, sessions and leads are lost on restart")
		return store.NewMemoryStore(store.WithSessionTTL(ttl)), nil
	default:
		return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
	}
}

// buildRegistry assembles the moving bot over its embedded catalog and
// gazetteer.
func buildRegistry(flags Flags) (*bot.Registry, error) {
	priceCfg, err := pricing.LoadConfig()
	if err != nil {
		return nil, err
	}
	gz, err := geo.LoadGazetteer()
	if err != nil {
		return nil, err
	}
	classifier := geo.NewClassifier(geo.NewResolver(gz))

	registry := bot.NewRegistry()
	registry.Register(bot.NewMovingHandler(
		botconfig.MovingBotConfig(), priceCfg, classifier,
		bot.WithShowEstimates(*flags.showEstimates)))
	return registry, nil
}

// buildMessaging constructs the enabled provider senders and the operator
// notifier. The notifier rides the first available sender.
func buildMessaging(flags Flags) (engine.Notifier, []api.ServerOption, error) {
	var opts []api.ServerOption
	var notifySender messaging.Sender

	if *flags.enableTwilio {
		sender, err := messaging.NewTwilioSender()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, api.WithSender(models.ProviderTwilio, sender))
		notifySender = sender
	}
	if *flags.enableMeta {
		sender, err := messaging.NewMetaSender()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, api.WithSender(models.ProviderMeta, sender))
		if notifySender == nil {
			notifySender = sender
		}
	}
	if *flags.enableTG {
		sender, err := messaging.NewTelegramSender(*flags.telegramToken)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, api.WithSender(models.ProviderTelegram, sender))
		if notifySender == nil {
			notifySender = sender
		}
	}

	if *flags.operatorChat == "" || notifySender == nil {
		slog.Debug("buildMessaging: operator notifications disabled",
			"operatorChat_set", *flags.operatorChat != "", "sender_available", notifySender != nil)
		return nil, opts, nil
	}

	notifierOpts := []notify.NotifierOption{
		notify.WithOperatorLanguage(models.Language(strings.ToLower(*flags.operatorLang))),
	}
	if *flags.openaiKey != "" {
		translator, err := translate.NewTranslator(translate.WithAPIKey(*flags.openaiKey))
		if err != nil {
			return nil, nil, err
		}
		notifierOpts = append(notifierOpts, notify.WithTranslator(translator))
	}
	return notify.NewOperatorNotifier(notifySender, *flags.operatorChat, notifierOpts...), opts, nil
}

// buildServerOptions constructs API server configuration options
func buildServerOptions(flags Flags) []api.ServerOption {
	opts := []api.ServerOption{
		api.WithAddr(*flags.apiAddr),
		api.WithDefaultTenant(*flags.defaultTenant),
	}
	if *flags.metaVerify != "" {
		opts = append(opts, api.WithMetaVerifyToken(*flags.metaVerify))
	}
	if *flags.apiKey != "" {
		opts = append(opts, api.WithAPIKey(*flags.apiKey))
	}
	return opts
}
