package ffprobe

import "testing"

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "tags": {"language": "ENG"}},
    {"index": 2, "codec_type": "audio", "codec_name": "aac"},
    {"index": 3, "codec_type": "subtitle", "codec_name": "mov_text", "tags": {"LANGUAGE": "fre"}}
  ],
  "format": {"duration": "123.45", "size": "1000", "format_name": "mov,mp4"}
}`

func TestParseStreamsAndLanguages(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 2 {
		t.Fatalf("unexpected stream counts: %d video, %d audio", result.VideoStreamCount(), result.AudioStreamCount())
	}
	audio := result.StreamsOfType("audio")
	if audio[0].Language() != "eng" || audio[1].Language() != "und" {
		t.Fatalf("unexpected audio languages %q %q", audio[0].Language(), audio[1].Language())
	}
	subs := result.StreamsOfType("subtitle")
	if len(subs) != 1 || subs[0].Language() != "fre" {
		t.Fatalf("unexpected subtitles: %#v", subs)
	}
	video, ok := result.PrimaryVideo()
	if !ok || video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected primary video: %#v", video)
	}
	if result.DurationSeconds() != 123.45 || result.SizeBytes() != 1000 {
		t.Fatalf("unexpected format values: %v %d", result.DurationSeconds(), result.SizeBytes())
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if _, ok := (Result{}).PrimaryVideo(); ok {
		t.Fatal("expected no primary video")
	}
}
