// Package ytdlp runs the generic downloader used for allow-listed domains
// that have no dedicated site adapter.
//
// The tool picks the final container, so the destination extension is only
// advisory. The definitive path comes from yt-dlp's after_move:filepath print;
// when that is missing the output directory is scanned for files created
// during the call.
package ytdlp
