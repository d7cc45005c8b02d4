package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	lang "reelpost/internal/language"
)

var knownStorageBackends = map[string]struct{}{
	"telegram": {},
	"local":    {},
	"mega":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateSecrets(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateSites(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	for _, backend := range c.Storage.Backends {
		if _, ok := knownStorageBackends[backend]; !ok {
			return fmt.Errorf("storage.backends: unknown backend %q", backend)
		}
	}
	if !c.StorageEnabled(c.Storage.Active) {
		return fmt.Errorf("storage.active %q must be listed in storage.backends", c.Storage.Active)
	}
	if c.StorageEnabled("local") && strings.TrimSpace(c.Storage.Local.Dir) == "" {
		return errors.New("storage.local.dir must be set when the local backend is enabled")
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Target {
	case "telegram":
	case "ntfy":
		if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
			return errors.New("notifications.ntfy_topic must be set when publish.target is ntfy (or set NTFY_TOPIC)")
		}
	default:
		return fmt.Errorf("publish.target: unsupported value %q", c.Publish.Target)
	}
	return nil
}

func (c *Config) validateTelegram() error {
	storageTelegram := c.StorageEnabled("telegram")
	publishTelegram := c.Publish.Target == "telegram"
	if !storageTelegram && !publishTelegram {
		return nil
	}
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelpost/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set TELEGRAM_BOT_TOKEN env var or edit %s (create with 'reelpost config init')", defaultPath)
	}
	if storageTelegram && c.Telegram.DumpChannelID == "" {
		return errors.New("telegram.dump_channel_id must be set when the telegram storage backend is enabled")
	}
	if publishTelegram && c.Telegram.PublishChannelID == "" {
		return errors.New("telegram.publish_channel_id must be set when publish.target is telegram")
	}
	return nil
}

func (c *Config) validateSecrets() error {
	switch c.Secrets.KeySource {
	case "config", "keyring":
		return nil
	default:
		return fmt.Errorf("secrets.key_source: unsupported value %q (want config or keyring)", c.Secrets.KeySource)
	}
}

func (c *Config) validateTranscode() error {
	if err := validateLanguages("transcode.audio_languages", c.Transcode.AudioLanguages); err != nil {
		return err
	}
	if err := validateLanguages("transcode.subtitle_languages", c.Transcode.SubtitleLanguages); err != nil {
		return err
	}
	if len(c.Transcode.Resolutions) == 0 {
		return errors.New("transcode.resolutions must define at least one variant")
	}
	for label, res := range c.Transcode.Resolutions {
		if err := validateResolutionLabel(label); err != nil {
			return err
		}
		if res.Width <= 0 || res.Height <= 0 {
			return fmt.Errorf("transcode.resolutions.%s: width and height must be positive", label)
		}
	}
	if c.Transcode.CRF > 51 {
		return errors.New("transcode.crf must be between 1 and 51")
	}
	return nil
}

// reservedLabels name files the pipeline writes next to the variants.
var reservedLabels = []string{"original", "raw"}

var resolutionLabel = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// validateResolutionLabel keeps labels usable as a bare file name.
func validateResolutionLabel(label string) error {
	for _, reserved := range reservedLabels {
		if strings.EqualFold(label, reserved) {
			return fmt.Errorf("transcode.resolutions: label %q is reserved", label)
		}
	}
	if !resolutionLabel.MatchString(label) {
		return fmt.Errorf("transcode.resolutions: label %q must contain only letters, digits, '-' and '_'", label)
	}
	return nil
}

func validateLanguages(field string, codes []string) error {
	for _, code := range codes {
		canonical := lang.Canonical(code)
		if canonical == lang.Undetermined {
			continue
		}
		if _, err := language.ParseBase(canonical); err != nil {
			return fmt.Errorf("%s: invalid language code %q", field, code)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"telegram.request_timeout":      c.Telegram.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"shortener.timeout":             c.Shortener.Timeout,
		"ytdlp.timeout":                 c.YTDLP.Timeout,
		"pipeline.workers":              c.Pipeline.Workers,
		"pipeline.tool_workers":         c.Pipeline.ToolWorkers,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Pipeline.ClaimTTL <= c.Workflow.HeartbeatInterval {
		return errors.New("pipeline.claim_ttl must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.PollIntervalMinutes <= 0 {
		return errors.New("scheduler.poll_interval_minutes must be positive")
	}
	if c.Scheduler.FeedURL != "" {
		if err := validateHTTPURL(c.Scheduler.FeedURL); err != nil {
			return fmt.Errorf("scheduler.feed_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSites() error {
	for i, site := range c.Sites.PublicAPI {
		if err := validateHTTPURL(site.BaseURL); err != nil {
			return fmt.Errorf("sites.public_api[%d].base_url: %w", i, err)
		}
		if len(site.Domains) == 0 {
			return fmt.Errorf("sites.public_api[%d].domains must include at least one domain", i)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
