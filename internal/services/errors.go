package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSecretUnavailable    = errors.New("secret unavailable")
	ErrAuthentication       = errors.New("authentication failed")
	ErrResolution           = errors.New("media resolution failed")
	ErrTransfer             = errors.New("transfer failed")
	ErrTranscode            = errors.New("transcode failed")
	ErrStorage              = errors.New("storage failed")
	ErrShortenerUnavailable = errors.New("shortener unavailable")
	ErrPublish              = errors.New("publish failed")
	ErrConflict             = errors.New("conflict")
	ErrNotImplemented       = errors.New("not implemented")
	ErrExternalTool         = errors.New("external tool error")
	ErrConfiguration        = errors.New("configuration error")
	ErrNotFound             = errors.New("not found")
	ErrTransient            = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the log-friendly classification of an error.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

var kinds = []struct {
	marker error
	kind   string
	hint   string
}{
	{ErrSecretUnavailable, "secret_unavailable", "check secrets.key_source and the encryption key used to store site credentials"},
	{ErrAuthentication, "authentication", "verify the stored site credential with 'reelpost sitecred list'"},
	{ErrResolution, "resolution", "the site did not return a downloadable URL; check the source URL"},
	{ErrTransfer, "transfer", "check network access to the source and retry on the next pass"},
	{ErrTranscode, "transcode", "inspect the ffmpeg stderr excerpt in the error"},
	{ErrStorage, "storage", "check the active storage backend configuration"},
	{ErrShortenerUnavailable, "shortener_unavailable", "links fall back to the next shortener or the raw reference"},
	{ErrPublish, "publish", "check the publish target configuration"},
	{ErrConflict, "conflict", "the record already exists"},
	{ErrNotImplemented, "not_implemented", "choose a different backend"},
	{ErrExternalTool, "external_tool", "run 'reelpost deps' to check required binaries"},
	{ErrConfiguration, "configuration", "review the configuration file"},
	{ErrNotFound, "not_found", ""},
	{ErrTransient, "transient", "retry on the next pass"},
}

// Details classifies err by the first sentinel it wraps.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: "unknown", Message: err.Error()}
	for _, entry := range kinds {
		if errors.Is(err, entry.marker) {
			details.Kind = entry.kind
			details.Hint = entry.hint
			break
		}
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
