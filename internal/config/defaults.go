package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			ToolsDir: "~/.pubops/tools.d",
		},
		Database: DatabaseConfig{
			Path: "twitter_publisher.db",
		},
		Dispatch: DispatchConfig{
			Interpreter:    "python3",
			TimeoutSeconds: 120,
			MaxOutputBytes: 262144,
		},
		Validate: ValidateConfig{
			TimeoutSeconds: 30,
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  "~/.pubops/pubops.db",
		},
		Notify: NotifyConfig{
			Telegram: TelegramConfig{
				Enabled: false,
			},
		},
	}
}
