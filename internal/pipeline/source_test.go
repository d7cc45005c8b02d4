package pipeline

import "testing"

func TestSourceExtension(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example/show/ep1.mkv":      ".mkv",
		"https://cdn.example/show/EP1.MP4?x=1":  ".mp4",
		"https://cdn.example/get.php?id=1":      ".mp4",
		"https://cdn.example/live/ep.m3u8":      ".mp4",
		"https://cdn.example/download":          ".mp4",
		"https://cdn.example/clip.webm#t=10":    ".webm",
	}
	for in, want := range cases {
		if got := sourceExtension(in); got != want {
			t.Errorf("sourceExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
