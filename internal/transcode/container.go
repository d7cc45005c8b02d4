package transcode

import "strings"

// DefaultContainer is used when a name carries no recognised container.
const DefaultContainer = ".mp4"

var knownContainers = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".ts":   {},
}

// ContainerExt returns ext lower-cased when ffmpeg can mux to it by name,
// otherwise DefaultContainer. Script or playlist suffixes such as .php or
// .m3u8 map to the default.
func ContainerExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, ok := knownContainers[ext]; ok {
		return ext
	}
	return DefaultContainer
}
