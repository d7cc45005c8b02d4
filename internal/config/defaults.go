package config

const (
	defaultWorkDir                   = "~/.local/share/reelpost/work"
	defaultDataDir                   = "~/.local/share/reelpost"
	defaultLogDir                    = "~/.local/share/reelpost/logs"
	defaultLogRetentionDays          = 30
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultTelegramAPIURL            = "https://api.telegram.org"
	defaultMaxInlineButtons          = 5
	defaultRequestTimeout            = 30
	defaultKeySource                 = "config"
	defaultFFmpegBinary              = "ffmpeg"
	defaultFFprobeBinary             = "ffprobe"
	defaultFFmpegLogLevel            = "error"
	defaultCRF                       = 20
	defaultPreset                    = "medium"
	defaultAudioBitrate              = "128k"
	defaultYTDLPBinary               = "yt-dlp"
	defaultYTDLPTimeout              = 3600
	defaultStorageBackend            = "telegram"
	defaultLocalStorageDir           = "~/.local/share/reelpost/published"
	defaultShortenerPreferred        = "tinyurl"
	defaultShortenerTimeout          = 20
	defaultPublishTarget             = "telegram"
	defaultPipelineWorkers           = 1
	defaultPipelineToolWorkers       = 2
	defaultClaimTTL                  = 600
	defaultPollIntervalMinutes       = 30
	defaultNotifyRequestTimeout      = 10
	defaultWorkflowHeartbeatInterval = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Telegram: Telegram{
			APIURL:           defaultTelegramAPIURL,
			MaxInlineButtons: defaultMaxInlineButtons,
			RequestTimeout:   defaultRequestTimeout,
		},
		Secrets: Secrets{
			KeySource: defaultKeySource,
		},
		Transcode: Transcode{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			LogLevel:          defaultFFmpegLogLevel,
			AudioLanguages:    []string{"en"},
			SubtitleLanguages: []string{"en"},
			Resolutions:       defaultResolutions(),
			CRF:               defaultCRF,
			Preset:            defaultPreset,
			AudioBitrate:      defaultAudioBitrate,
		},
		YTDLP: YTDLP{
			Binary:  defaultYTDLPBinary,
			Timeout: defaultYTDLPTimeout,
		},
		Storage: Storage{
			Backends: []string{defaultStorageBackend},
			Active:   defaultStorageBackend,
			Local: LocalStorage{
				Dir: defaultLocalStorageDir,
			},
		},
		Shortener: Shortener{
			Preferred: defaultShortenerPreferred,
			Fallbacks: []string{"isgd"},
			Timeout:   defaultShortenerTimeout,
		},
		Publish: Publish{
			Target: defaultPublishTarget,
		},
		Pipeline: Pipeline{
			Workers:     defaultPipelineWorkers,
			ToolWorkers: defaultPipelineToolWorkers,
			ClaimTTL:    defaultClaimTTL,
		},
		Scheduler: Scheduler{
			Enabled:             true,
			PollIntervalMinutes: defaultPollIntervalMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			PassSummary:    true,
			Failures:       true,
		},
		Workflow: Workflow{
			HeartbeatInterval: defaultWorkflowHeartbeatInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func defaultResolutions() map[string]Resolution {
	return map[string]Resolution{
		"480p":  {Width: 854, Height: 480},
		"720p":  {Width: 1280, Height: 720},
		"1080p": {Width: 1920, Height: 1080},
	}
}
