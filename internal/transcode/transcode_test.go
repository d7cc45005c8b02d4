package transcode

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/media/ffprobe"
	"reelpost/internal/services"
	"reelpost/internal/workpool"
)

const probeJSON = `{"streams":[
  {"index":0,"codec_type":"video","width":640,"height":360},
  {"index":1,"codec_type":"audio","tags":{"language":"eng"}},
  {"index":2,"codec_type":"audio","tags":{"language":"fre"}},
  {"index":3,"codec_type":"audio"},
  {"index":4,"codec_type":"subtitle","tags":{"language":"en"}}
]}`

type call struct {
	binary string
	args   []string
}

type fakeExecutor struct {
	calls     []call
	failOn    int
	stderr    string
	mediaInfo string
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (Output, error) {
	f.calls = append(f.calls, call{binary: binary, args: args})
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return Output{Stderr: []byte(f.stderr)}, errors.New("exit status 1")
	}
	if binary == "ffprobe" {
		if f.mediaInfo != "" {
			return Output{Stdout: []byte(f.mediaInfo)}, nil
		}
		return Output{Stdout: []byte(probeJSON)}, nil
	}
	return Output{}, nil
}

func testSettings() Settings {
	cfg := config.Default()
	cfg.Transcode.Resolutions = map[string]config.Resolution{
		"720p": {Width: 1280, Height: 720},
		"480p": {Width: 854, Height: 480},
	}
	return SettingsFromConfig(&cfg)
}

func TestFilterStreamsByLanguage(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 1, CodecType: "audio", Tags: map[string]string{"language": "en"}},
		{Index: 2, CodecType: "audio", Tags: map[string]string{"language": "fr"}},
		{Index: 3, CodecType: "audio", Tags: map[string]string{"language": "und"}},
		{Index: 4, CodecType: "audio"},
		{Index: 5, CodecType: "subtitle", Tags: map[string]string{"language": "en"}},
	}
	kept := FilterStreams(streams, "audio", []string{"EN"})
	if len(kept) != 1 || kept[0].Index != 1 {
		t.Fatalf("expected only the en audio stream, got %#v", kept)
	}

	withUnd := FilterStreams(streams, "audio", []string{"en", "und"})
	if len(withUnd) != 3 {
		t.Fatalf("expected en plus both untagged streams, got %d", len(withUnd))
	}
	if got := FilterStreams(streams, "audio", nil); len(got) != 0 {
		t.Fatalf("expected empty allow-list to drop all, got %d", len(got))
	}
}

func TestKeptLanguagesNamesDistinctLanguages(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 1, CodecType: "audio", Tags: map[string]string{"language": "eng"}},
		{Index: 2, CodecType: "audio", Tags: map[string]string{"language": "en"}},
		{Index: 3, CodecType: "audio", Tags: map[string]string{"language": "ger"}},
		{Index: 4, CodecType: "audio"},
	}
	if got := keptLanguages(streams); got != "English, German, Unknown" {
		t.Fatalf("keptLanguages = %q", got)
	}
	if got := keptLanguages(nil); got != "none" {
		t.Fatalf("keptLanguages(nil) = %q", got)
	}
}

func TestFitWithinNeverUpscales(t *testing.T) {
	cases := []struct {
		name         string
		srcW, srcH   int
		boxW, boxH   int
		wantW, wantH int
	}{
		{"small source", 640, 360, 1920, 1080, 640, 360},
		{"exact downscale", 1920, 1080, 1280, 720, 1280, 720},
		{"wide source", 1920, 800, 1280, 720, 1280, 532},
		{"portrait source", 1080, 1920, 1280, 720, 404, 720},
		{"odd source", 641, 361, 1920, 1080, 640, 360},
		{"unknown source", 0, 0, 854, 480, 854, 480},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := FitWithin(tc.srcW, tc.srcH, tc.boxW, tc.boxH)
			if w != tc.wantW || h != tc.wantH {
				t.Fatalf("FitWithin = %dx%d, want %dx%d", w, h, tc.wantW, tc.wantH)
			}
			if tc.srcW > 0 && (w > tc.srcW || h > tc.srcH) {
				t.Fatalf("upscaled %dx%d beyond source %dx%d", w, h, tc.srcW, tc.srcH)
			}
		})
	}
}

func TestRenderProducesOrderedVariants(t *testing.T) {
	exec := &fakeExecutor{}
	engine := NewEngine(testSettings(), workpool.New(1), logging.NewNop(), WithExecutor(exec))
	dir := t.TempDir()
	input := filepath.Join(dir, "raw.mp4")

	variants, err := engine.Render(context.Background(), input, dir, "show Episode 1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := strings.Join(variants.Labels(), ","); got != "480p,720p,original" {
		t.Fatalf("unexpected labels %q", got)
	}
	if variants[2].Path != input {
		t.Fatalf("expected original to pass through, got %q", variants[2].Path)
	}
	if len(exec.calls) != 3 || exec.calls[0].binary != "ffprobe" {
		t.Fatalf("expected probe then two renders, got %#v", exec.calls)
	}

	render := exec.calls[1].args
	if !slices.Contains(render, "0:v:0") || !slices.Contains(render, "0:1") || !slices.Contains(render, "0:4") {
		t.Fatalf("expected video, en audio and en subtitle maps: %v", render)
	}
	if slices.Contains(render, "0:2") || slices.Contains(render, "0:3") {
		t.Fatalf("expected fr and und audio dropped: %v", render)
	}
	if !slices.Contains(render, "scale=640:360") {
		t.Fatalf("expected native-size scale for small source: %v", render)
	}
	if render[len(render)-1] != filepath.Join(dir, "480p.mp4") {
		t.Fatalf("unexpected output %q", render[len(render)-1])
	}
}

func TestRenderWatermarkPassCopiesStreams(t *testing.T) {
	settings := testSettings()
	settings.Watermark = true
	settings.Metadata = map[string]string{"comment": "reelpost"}
	exec := &fakeExecutor{}
	engine := NewEngine(settings, nil, logging.NewNop(), WithExecutor(exec))
	dir := t.TempDir()

	variants, err := engine.Render(context.Background(), filepath.Join(dir, "raw.mkv"), dir, "show Episode 2")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	marked := filepath.Join(dir, "original.mkv")
	if variants[len(variants)-1].Path != marked {
		t.Fatalf("expected watermarked original, got %q", variants[len(variants)-1].Path)
	}

	pass := exec.calls[0].args
	joined := strings.Join(pass, " ")
	if !strings.Contains(joined, "-map 0 -c copy") {
		t.Fatalf("expected stream copy without overlay: %v", pass)
	}
	if !strings.Contains(joined, "title=show Episode 2") || !strings.Contains(joined, "comment=reelpost") {
		t.Fatalf("expected metadata tags: %v", pass)
	}
	if probe := exec.calls[1]; probe.binary != "ffprobe" || probe.args[len(probe.args)-1] != marked {
		t.Fatalf("expected probe of watermarked file, got %#v", probe)
	}
}

func TestWatermarkOverlayReencodesVideoOnly(t *testing.T) {
	settings := testSettings()
	settings.WatermarkImage = "/logo.png"
	settings.WatermarkText = "it's 10:00"
	args := strings.Join(watermarkArgs(settings, "in.mp4", "out.mp4", map[string]string{"title": "t"}), " ")

	for _, want := range []string{
		"-i /logo.png",
		"[0:v:0][1:v]overlay=10:10[wm]",
		`[wm]drawtext=expansion=none:text=it\\\'s 10\\:00:x=20:y=50`,
		"-map [txt]",
		"-c:a copy",
		"-c:s copy",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %s", want, args)
		}
	}
}

func TestEscapeFilterValue(t *testing.T) {
	got := escapeFilterValue("this is a 'string': may contain one, or more, special characters")
	want := `this is a \\\'string\\\'\\: may contain one\, or more\, special characters`
	if got != want {
		t.Fatalf("escapeFilterValue = %s, want %s", got, want)
	}
	if got := escapeFilterValue("Bob's [HD]; 50%"); got != `Bob\\\'s \[HD\]\; 50%` {
		t.Fatalf("unexpected escape %s", got)
	}
}

func TestContainerExt(t *testing.T) {
	cases := map[string]string{
		".mkv":  ".mkv",
		"WEBM":  ".webm",
		".ts":   ".ts",
		".php":  ".mp4",
		".m3u8": ".mp4",
		"":      ".mp4",
	}
	for in, want := range cases {
		if got := ContainerExt(in); got != want {
			t.Errorf("ContainerExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderWatermarkUsesKnownContainer(t *testing.T) {
	settings := testSettings()
	settings.Watermark = true
	exec := &fakeExecutor{}
	engine := NewEngine(settings, nil, logging.NewNop(), WithExecutor(exec))
	dir := t.TempDir()

	variants, err := engine.Render(context.Background(), filepath.Join(dir, "raw.php"), dir, "show Episode 4")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := filepath.Join(dir, "original.mp4")
	if got := variants[len(variants)-1].Path; got != want {
		t.Fatalf("original variant = %q, want %q", got, want)
	}
	pass := exec.calls[0].args
	if pass[len(pass)-1] != want {
		t.Fatalf("watermark output = %q, want %q", pass[len(pass)-1], want)
	}
}

func TestRenderAbortsOnToolFailure(t *testing.T) {
	exec := &fakeExecutor{failOn: 2, stderr: strings.Repeat("Z", 2000)}
	engine := NewEngine(testSettings(), nil, logging.NewNop(), WithExecutor(exec))
	dir := t.TempDir()

	_, err := engine.Render(context.Background(), filepath.Join(dir, "raw.mp4"), dir, "show Episode 3")
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected ErrTranscode, got %v", err)
	}
	if strings.Count(err.Error(), "Z") > stderrLimit {
		t.Fatalf("expected stderr truncated to %d bytes", stderrLimit)
	}
	if len(exec.calls) != 2 {
		t.Fatalf("expected remaining renders skipped, got %d calls", len(exec.calls))
	}
}

func TestRenderRejectsSourceWithoutVideo(t *testing.T) {
	exec := &fakeExecutor{mediaInfo: `{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"12.5"}}`}
	engine := NewEngine(testSettings(), nil, logging.NewNop(), WithExecutor(exec))
	dir := t.TempDir()

	_, err := engine.Render(context.Background(), filepath.Join(dir, "raw.mp4"), dir, "show Episode 4")
	if !errors.Is(err, services.ErrTranscode) || !strings.Contains(err.Error(), "no video stream") {
		t.Fatalf("expected no-video transcode error, got %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected only ffprobe to run, got %d calls", len(exec.calls))
	}
}
