package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"reelpost/internal/services"
)

const userAgent = "reelpost/0.1.0"

// ntfy renders at most three action buttons per message.
const maxNtfyActions = 3

// NtfyPublisher announces episodes to an ntfy topic, listing every link in
// the body and attaching view actions for the first few.
type NtfyPublisher struct {
	topic  string
	client HTTPDoer
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewNtfyPublisher posts to the topic URL.
func NewNtfyPublisher(topic string, client HTTPDoer) *NtfyPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &NtfyPublisher{topic: strings.TrimSpace(topic), client: client}
}

func (p *NtfyPublisher) Name() string { return "ntfy" }

// Publish returns "<topic>#<message id>".
func (p *NtfyPublisher) Publish(ctx context.Context, post Post) (string, error) {
	if len(post.Links) == 0 {
		return "", services.Wrap(services.ErrPublish, "publish", "ntfy post", post.Caption(), errNoLinks)
	}
	var body strings.Builder
	for _, link := range post.Links {
		fmt.Fprintf(&body, "%s: %s\n", link.Label, link.URL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.topic, strings.NewReader(strings.TrimRight(body.String(), "\n")))
	if err != nil {
		return "", services.Wrap(services.ErrPublish, "publish", "ntfy post", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", post.Caption())
	req.Header.Set("Tags", "reelpost,episode")
	req.Header.Set("Actions", ntfyActions(post.Links))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrPublish, "publish", "ntfy post", post.Caption(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", services.Wrap(services.ErrPublish, "publish", "ntfy post",
			fmt.Sprintf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	var published struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&published); err != nil || published.ID == "" {
		return p.topic, nil
	}
	return p.topic + "#" + published.ID, nil
}

func ntfyActions(links []Link) string {
	if len(links) > maxNtfyActions {
		links = links[:maxNtfyActions]
	}
	actions := make([]string, 0, len(links))
	for _, link := range links {
		label := strings.NewReplacer(",", " ", ";", " ").Replace(link.Label)
		actions = append(actions, fmt.Sprintf("view, %s, %s", label, link.URL))
	}
	return strings.Join(actions, "; ")
}
