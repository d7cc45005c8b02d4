package ytdlp

import (
	"context"
	"fmt"
	"strings"

	goytdlp "github.com/lrstanley/go-ytdlp"
)

const stderrLimit = 500

type commandRunner struct {
	binary string
}

// Run mirrors the downloader's fixed option set: best video+audio merged to
// mp4, five retries, four concurrent fragments, and the final path printed
// after post-processing.
func (r commandRunner) Run(ctx context.Context, req Request) (string, error) {
	cmd := goytdlp.New().
		Output(req.OutputTemplate).
		Format("bv*+ba/b").
		MergeOutputFormat("mp4").
		RecodeVideo("mp4").
		Retries("5").
		FragmentRetries("5").
		ConcurrentFragments(4).
		NoProgress().
		NoWarnings().
		NoSimulate().
		Print("after_move:filepath")
	if binary := strings.TrimSpace(r.binary); binary != "" {
		cmd.SetExecutable(binary)
	}
	if req.Username != "" {
		cmd.Username(req.Username)
	}
	if req.Password != "" {
		cmd.Password(req.Password)
	}

	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		if result != nil {
			return "", fmt.Errorf("%w: %s", err, truncate(strings.TrimSpace(result.Stderr), stderrLimit))
		}
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return result.Stdout, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
