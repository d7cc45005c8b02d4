// Package transcode renders an acquired source into the variant set.
//
// Each episode moves strictly through RAW, an optional WATERMARKED pass, and
// one rendered file per configured resolution plus the untouched "original".
// Audio and subtitle streams are filtered by language allow-lists; the first
// video stream is always kept. Every ffmpeg and ffprobe call goes through an
// Executor on the shared worker pool, and any non-zero exit aborts the
// remaining stages with services.ErrTranscode carrying a stderr excerpt.
package transcode
