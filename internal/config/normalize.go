package config

import (
	"fmt"
	"os"
	"strings"

	"reelpost/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeSecrets()
	c.normalizeNaming()
	c.normalizeTranscode()
	if err := c.normalizeWatermark(); err != nil {
		return err
	}
	c.normalizeYTDLP()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeShortener()
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeSites()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.BotToken = envFallback(c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	c.Telegram.DumpChannelID = envFallback(c.Telegram.DumpChannelID, "TELEGRAM_DUMP_CHANNEL_ID")
	c.Telegram.PublishChannelID = envFallback(c.Telegram.PublishChannelID, "TELEGRAM_PUBLISH_CHANNEL_ID")
	c.Telegram.APIURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIURL), "/")
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = defaultTelegramAPIURL
	}
	if c.Telegram.MaxInlineButtons <= 0 {
		c.Telegram.MaxInlineButtons = defaultMaxInlineButtons
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeSecrets() {
	c.Secrets.EncryptionKey = envFallback(c.Secrets.EncryptionKey, "REELPOST_ENCRYPTION_KEY")
	c.Secrets.KeySource = strings.ToLower(strings.TrimSpace(c.Secrets.KeySource))
	if c.Secrets.KeySource == "" {
		c.Secrets.KeySource = defaultKeySource
	}
}

func (c *Config) normalizeNaming() {
	tags := make([]string, 0, len(c.Naming.MetaTags))
	for _, tag := range c.Naming.MetaTags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	c.Naming.MetaTags = tags
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	c.Transcode.LogLevel = strings.ToLower(strings.TrimSpace(c.Transcode.LogLevel))
	if c.Transcode.LogLevel == "" {
		c.Transcode.LogLevel = defaultFFmpegLogLevel
	}
	c.Transcode.AudioLanguages = language.NormalizeList(c.Transcode.AudioLanguages)
	c.Transcode.SubtitleLanguages = language.NormalizeList(c.Transcode.SubtitleLanguages)
	if len(c.Transcode.Resolutions) == 0 {
		c.Transcode.Resolutions = defaultResolutions()
	} else {
		resolutions := make(map[string]Resolution, len(c.Transcode.Resolutions))
		for label, res := range c.Transcode.Resolutions {
			if trimmed := strings.TrimSpace(label); trimmed != "" {
				resolutions[trimmed] = res
			}
		}
		c.Transcode.Resolutions = resolutions
	}
	if c.Transcode.CRF <= 0 {
		c.Transcode.CRF = defaultCRF
	}
	c.Transcode.Preset = strings.TrimSpace(c.Transcode.Preset)
	if c.Transcode.Preset == "" {
		c.Transcode.Preset = defaultPreset
	}
	c.Transcode.AudioBitrate = strings.TrimSpace(c.Transcode.AudioBitrate)
	if c.Transcode.AudioBitrate == "" {
		c.Transcode.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeWatermark() error {
	c.Watermark.Text = strings.TrimSpace(c.Watermark.Text)
	c.Watermark.ImagePath = strings.TrimSpace(c.Watermark.ImagePath)
	if c.Watermark.ImagePath != "" {
		var err error
		if c.Watermark.ImagePath, err = expandPath(c.Watermark.ImagePath); err != nil {
			return fmt.Errorf("watermark.image_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeYTDLP() {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	if c.YTDLP.Timeout <= 0 {
		c.YTDLP.Timeout = defaultYTDLPTimeout
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backends = normalizeNames(c.Storage.Backends)
	if len(c.Storage.Backends) == 0 {
		c.Storage.Backends = []string{defaultStorageBackend}
	}
	c.Storage.Active = strings.ToLower(strings.TrimSpace(c.Storage.Active))
	if c.Storage.Active == "" {
		c.Storage.Active = c.Storage.Backends[0]
	}
	if strings.TrimSpace(c.Storage.Local.Dir) == "" {
		c.Storage.Local.Dir = defaultLocalStorageDir
	}
	var err error
	if c.Storage.Local.Dir, err = expandPath(c.Storage.Local.Dir); err != nil {
		return fmt.Errorf("storage.local.dir: %w", err)
	}
	c.Storage.Local.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.Local.PublicBaseURL), "/")
	return nil
}

func (c *Config) normalizeShortener() {
	c.Shortener.Preferred = strings.ToLower(strings.TrimSpace(c.Shortener.Preferred))
	c.Shortener.Fallbacks = normalizeNames(c.Shortener.Fallbacks)
	if c.Shortener.Timeout <= 0 {
		c.Shortener.Timeout = defaultShortenerTimeout
	}
	c.Publish.Target = strings.ToLower(strings.TrimSpace(c.Publish.Target))
	if c.Publish.Target == "" {
		c.Publish.Target = defaultPublishTarget
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
	if c.Pipeline.ToolWorkers <= 0 {
		c.Pipeline.ToolWorkers = defaultPipelineToolWorkers
	}
	if c.Pipeline.ClaimTTL <= 0 {
		c.Pipeline.ClaimTTL = defaultClaimTTL
	}
	if c.Scheduler.PollIntervalMinutes <= 0 {
		c.Scheduler.PollIntervalMinutes = defaultPollIntervalMinutes
	}
	c.Scheduler.FeedURL = strings.TrimSpace(c.Scheduler.FeedURL)
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultWorkflowHeartbeatInterval
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = envFallback(c.Notifications.NtfyTopic, "NTFY_TOPIC")
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeSites() {
	for i := range c.Sites.PublicAPI {
		site := &c.Sites.PublicAPI[i]
		site.Name = strings.TrimSpace(site.Name)
		if site.Name == "" {
			site.Name = "public_api"
		}
		site.BaseURL = strings.TrimRight(strings.TrimSpace(site.BaseURL), "/")
		site.Domains = normalizeNames(site.Domains)
		site.ClientID = strings.TrimSpace(site.ClientID)
		site.ClientSecret = strings.TrimSpace(site.ClientSecret)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// normalizeNames lower-cases, trims, and de-duplicates a list while keeping order.
func normalizeNames(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func envFallback(current, key string) string {
	current = strings.TrimSpace(current)
	if current != "" {
		return current
	}
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
