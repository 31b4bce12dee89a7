package cfg

type Cfg struct {
	// Telegram
	TelegramToken string

	// OpenRouter
	OpenRouterKey   string
	OpenRouterModel string

	// Database
	DBPath string

	// Application configuration
	JournalsDir       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
