package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace:        ExpandPath("~/.mentat/workspace"),
			LogLevel:         "info",
			MaxContinuations: 8,
			DefaultProvider:  "ollama",
			Temperature:      0.7,
			MaxTokens:        4096,
			HistoryLimit:     50,
		},
		Providers: map[string]ProviderConfig{
			"ollama": {
				Enabled:      true,
				APIBase:      "http://localhost:11434",
				DefaultModel: "llama3.1:8b",
			},
			"openai": {
				Enabled:      false,
				APIBase:      "https://api.openai.com/v1",
				APIKey:       "${OPENAI_API_KEY}",
				DefaultModel: "gpt-4o-mini",
			},
		},
		Channels: ChannelsConfig{
			CLI: CLIChannelConfig{
				Enabled: true,
			},
			WebSocket: WebSocketConfig{
				Enabled: false,
				Host:    "127.0.0.1",
				Port:    8765,
			},
			Telegram: TelegramConfig{
				Enabled:   false,
				ParseMode: "Markdown",
			},
		},
		Memory: MemoryConfig{
			DBPath:       ExpandPath("~/.mentat/memory.db"),
			ContextLimit: 20,
		},
		Tools: ToolsConfig{
			Shell: ShellToolConfig{
				Timeout:        30,
				MaxOutputBytes: 65536,
			},
			WebPage: WebPageToolConfig{
				Enabled: false,
				Timeout: 20,
			},
		},
	}
}
