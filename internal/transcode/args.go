package transcode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"reelpost/internal/media/ffprobe"
)

// watermarkArgs builds the metadata/overlay pass. Without an overlay the
// whole file is stream-copied; with one only video is re-encoded.
func watermarkArgs(s Settings, input, output string, metadata map[string]string) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", s.LogLevel, "-y", "-i", input}
	image := strings.TrimSpace(s.WatermarkImage)
	text := strings.TrimSpace(s.WatermarkText)

	var filters []string
	videoLabel := "0:v:0"
	if image != "" {
		args = append(args, "-i", image)
		filters = append(filters, "[0:v:0][1:v]overlay=10:10[wm]")
		videoLabel = "[wm]"
	}
	if text != "" {
		source := "[0:v:0]"
		if videoLabel == "[wm]" {
			source = "[wm]"
		}
		filters = append(filters, fmt.Sprintf("%sdrawtext=expansion=none:text=%s:x=20:y=50:fontsize=24:fontcolor=white[txt]", source, escapeFilterValue(text)))
		videoLabel = "[txt]"
	}

	if len(filters) > 0 {
		args = append(args,
			"-filter_complex", strings.Join(filters, ";"),
			"-map", videoLabel,
			"-map", "0:a?",
			"-map", "0:s?",
			"-c:v", "libx264", "-preset", s.Preset, "-crf", strconv.Itoa(s.CRF),
			"-c:a", "copy",
			"-c:s", "copy",
		)
	} else {
		args = append(args, "-map", "0", "-c", "copy")
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "-metadata", key+"="+metadata[key])
	}
	return append(args, output)
}

// variantArgs builds one resolution render from the probed source.
func variantArgs(s Settings, input, output string, probe ffprobe.Result, width, height int) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", s.LogLevel, "-y", "-i", input, "-map", "0:v:0"}
	for _, stream := range FilterStreams(probe.Streams, "audio", s.AudioLanguages) {
		args = append(args, "-map", "0:"+strconv.Itoa(stream.Index))
	}
	for _, stream := range FilterStreams(probe.Streams, "subtitle", s.SubtitleLanguages) {
		args = append(args, "-map", "0:"+strconv.Itoa(stream.Index))
	}

	scale := fmt.Sprintf("scale=w='min(%d,iw)':h='min(%d,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2", width, height)
	if video, ok := probe.PrimaryVideo(); ok && video.Width > 0 && video.Height > 0 {
		w, h := FitWithin(video.Width, video.Height, width, height)
		scale = fmt.Sprintf("scale=%d:%d", w, h)
	}

	args = append(args,
		"-c:v", "libx264", "-preset", s.Preset, "-crf", strconv.Itoa(s.CRF),
		"-vf", scale,
		"-c:a", "aac", "-b:a", s.AudioBitrate,
		"-c:s", "copy",
		output,
	)
	return args
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// escapeFilterValue escapes an option value for -filter_complex. ffmpeg
// unescapes twice: once for the option list and once for the graph. The
// value is left unquoted so apostrophes survive both passes.
func escapeFilterValue(value string) string {
	return graphEscaper.Replace(optionEscaper.Replace(value))
}
