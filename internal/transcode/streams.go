package transcode

import (
	"strings"

	"github.com/samber/lo"

	"reelpost/internal/language"
	"reelpost/internal/media/ffprobe"
)

// FilterStreams keeps streams of kind whose language tag is in allowed.
// Matching is case-insensitive and treats ISO 639-1 and 639-2 forms of the
// same language as equal. Untagged streams ("und") are kept only when
// allowed lists "und".
func FilterStreams(streams []ffprobe.Stream, kind string, allowed []string) []ffprobe.Stream {
	return lo.Filter(streams, func(stream ffprobe.Stream, _ int) bool {
		if stream.CodecType != kind {
			return false
		}
		return language.Allowed(allowed, stream.Language())
	})
}

// keptLanguages names the distinct languages of streams for log output.
func keptLanguages(streams []ffprobe.Stream) string {
	if len(streams) == 0 {
		return "none"
	}
	names := lo.Uniq(lo.Map(streams, func(stream ffprobe.Stream, _ int) string {
		return language.DisplayName(stream.Language())
	}))
	return strings.Join(names, ", ")
}
