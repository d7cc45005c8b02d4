package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpost/internal/config"
)

const userAgent = "reelpost/0.1.0"

// PassSummary carries the counts reported after a pass.
type PassSummary struct {
	Selected  int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyPassCompleted(ctx context.Context, summary PassSummary) error
	NotifyEpisodeFailed(ctx context.Context, series string, number int, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		passSummary: cfg.Notifications.PassSummary,
		failures:    cfg.Notifications.Failures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	passSummary bool
	failures    bool
}

func (n *ntfyService) NotifyPassCompleted(ctx context.Context, summary PassSummary) error {
	if !n.passSummary || summary.Selected == 0 {
		return nil
	}
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "reelpost - Pass Complete"
	message := fmt.Sprintf("Published %d episodes in %s", summary.Succeeded, duration)
	if summary.Failed > 0 {
		title = "reelpost - Pass Complete (with errors)"
		message = fmt.Sprintf("%d published, %d failed in %s", summary.Succeeded, summary.Failed, duration)
	}
	if summary.Skipped > 0 {
		message = fmt.Sprintf("%s (%d skipped)", message, summary.Skipped)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"reelpost", "pass", "completed"},
	})
}

func (n *ntfyService) NotifyEpisodeFailed(ctx context.Context, series string, number int, err error) error {
	if !n.failures {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "❌ %s Episode %d failed: ", strings.TrimSpace(series), number)
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "reelpost - Episode Failed",
		message:  builder.String(),
		tags:     []string{"reelpost", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "reelpost - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelpost", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPassCompleted(context.Context, PassSummary) error        { return nil }
func (noopService) NotifyEpisodeFailed(context.Context, string, int, error) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
