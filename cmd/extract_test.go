package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appaudio "reel-audio/application/audio"
	"reel-audio/domain/audio"
	"reel-audio/infrastructure/config"
	"reel-audio/infrastructure/filesystem"
)

type stubMedia struct{}

func (stubMedia) AudioTrack() (*audio.AudioTrack, error) {
	return &audio.AudioTrack{StreamIndex: 1}, nil
}

func (stubMedia) Close() error { return nil }

// stubConverter writes an output file, failing the formats in fail
type stubConverter struct {
	fail map[audio.Format]error
}

func (c *stubConverter) OpenMedia(ctx context.Context, path string) (audio.Media, error) {
	return stubMedia{}, nil
}

func (c *stubConverter) WriteAudio(ctx context.Context, track *audio.AudioTrack, req *audio.ExtractionRequest, outputPath string) error {
	if err := c.fail[req.Format]; err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("audio"), 0644)
}

func writeMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewExtractor_AcceptsConfiguredVideoExtensions(t *testing.T) {
	source := writeMedia(t, "XYZ.m4v")
	cfg := config.Default()
	cfg.Downloader.VideoExtensions = []string{".mp4", ".m4v"}

	result, err := newExtractor(cfg, &stubConverter{}).ExtractTo(context.Background(), source)
	if err != nil {
		t.Fatalf("ExtractTo() unexpected error: %v", err)
	}
	if want := strings.TrimSuffix(source, ".m4v") + ".mp3"; result.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, want)
	}
}

func TestRunExtractAudio_ReportsWAVFallback(t *testing.T) {
	source := writeMedia(t, "talk.mp4")
	conv := &stubConverter{fail: map[audio.Format]error{audio.FormatMP3: errors.New("Unknown encoder 'libmp3lame'")}}
	var out bytes.Buffer

	err := RunExtractAudioWithDependencies(context.Background(), conv, filesystem.NewChecker(),
		audio.Settings{}, appaudio.ExtractInput{SourcePath: source}, &out)
	if err != nil {
		t.Fatalf("RunExtractAudioWithDependencies() unexpected error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "MP3 encoding failed (Unknown encoder 'libmp3lame'), wrote WAV instead") {
		t.Errorf("missing fallback line in %q", got)
	}
	if want := strings.TrimSuffix(source, ".mp4") + ".wav"; !strings.Contains(got, "Successfully created: "+want) {
		t.Errorf("missing wav path in %q", got)
	}
}

func TestRunExtractAudio_ReencodesAudioSource(t *testing.T) {
	source := writeMedia(t, "talk.mp3")
	var out bytes.Buffer

	err := RunExtractAudioWithDependencies(context.Background(), &stubConverter{}, filesystem.NewChecker(),
		audio.Settings{}, appaudio.ExtractInput{SourcePath: source}, &out)
	if err != nil {
		t.Fatalf("RunExtractAudioWithDependencies() unexpected error: %v", err)
	}
	want := strings.TrimSuffix(source, ".mp3") + "_audio.mp3"
	if !strings.Contains(out.String(), "Successfully created: "+want) {
		t.Errorf("output = %q, want path %s", out.String(), want)
	}
	data, err := os.ReadFile(source)
	if err != nil || string(data) != "media" {
		t.Errorf("source was modified: %q, %v", data, err)
	}
}
