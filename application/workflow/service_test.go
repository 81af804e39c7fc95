package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	appaudio "reel-audio/application/audio"
	"reel-audio/domain/audio"
	"reel-audio/domain/post"
)

// --- Mock implementations for testing ---

// mockDownloader implements post.Downloader, writing files into the target directory
type mockDownloader struct {
	owner       string
	files       []string
	resolveErr  error
	downloadErr error
	panicMsg    string
	resolved    []post.Identifier
	downloadDir []string
}

func (m *mockDownloader) ResolveItem(ctx context.Context, id post.Identifier) (*post.Item, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.resolved = append(m.resolved, id)
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return post.NewItem(id, m.owner, "https://www.site.example/p/"+string(id)+"/")
}

func (m *mockDownloader) DownloadItem(ctx context.Context, item *post.Item, targetDir string) error {
	m.downloadDir = append(m.downloadDir, targetDir)
	if m.downloadErr != nil {
		return m.downloadErr
	}
	for _, name := range m.files {
		if err := os.WriteFile(filepath.Join(targetDir, name), []byte("media"), 0644); err != nil {
			return err
		}
	}
	return nil
}

// osDirectories implements post.DirectoryPreparer on the real filesystem
type osDirectories struct {
	err error
}

func (d *osDirectories) Prepare(root, name string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	dir := filepath.Join(root, name)
	return dir, os.MkdirAll(dir, 0755)
}

// sortedFinder implements post.ArtifactFinder picking the smallest .mp4/.webm name
type sortedFinder struct{}

func (sortedFinder) FindVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if ext := filepath.Ext(e.Name()); ext == ".mp4" || ext == ".webm" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in %s", post.ErrNoVideoArtifact, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

type mockMedia struct {
	closeCount int
	trackErr   error
}

func (m *mockMedia) AudioTrack() (*audio.AudioTrack, error) {
	if m.trackErr != nil {
		return nil, m.trackErr
	}
	return &audio.AudioTrack{StreamIndex: 1, Codec: "aac"}, nil
}

func (m *mockMedia) Close() error {
	m.closeCount++
	return nil
}

// mockConverter implements audio.Converter, recording opened media and writing output files
type mockConverter struct {
	writeErr   error
	failFormat audio.Format
	trackErr   error
	media    []*mockMedia
	opened   []string
}

func (m *mockConverter) OpenMedia(ctx context.Context, path string) (audio.Media, error) {
	m.opened = append(m.opened, path)
	media := &mockMedia{trackErr: m.trackErr}
	m.media = append(m.media, media)
	return media, nil
}

func (m *mockConverter) WriteAudio(ctx context.Context, track *audio.AudioTrack, req *audio.ExtractionRequest, outputPath string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.failFormat != "" && req.Format == m.failFormat {
		return fmt.Errorf("Unknown encoder for %s", req.Format)
	}
	return os.WriteFile(outputPath, []byte("audio"), 0644)
}

type osFileChecker struct{}

func (osFileChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileChecker) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

type fixture struct {
	svc        *Service
	root       string
	downloader *mockDownloader
	converter  *mockConverter
	logs       *bytes.Buffer
	output     *bytes.Buffer
}

func newFixture(t *testing.T, downloader *mockDownloader) *fixture {
	t.Helper()
	f := &fixture{
		root:       filepath.Join(t.TempDir(), "downloads"),
		downloader: downloader,
		converter:  &mockConverter{},
		logs:       &bytes.Buffer{},
		output:     &bytes.Buffer{},
	}
	extractor := appaudio.NewExtractService(f.converter, osFileChecker{}, audio.Settings{})
	svc, err := New(
		Config{DownloadsDir: f.root},
		downloader,
		&osDirectories{},
		sortedFinder{},
		extractor,
		WithLogger(slog.New(slog.NewTextHandler(f.logs, nil))),
		WithOutput(f.output),
	)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	f.svc = svc
	return f
}

func TestNew_CreatesRoot(t *testing.T) {
	f := newFixture(t, &mockDownloader{owner: "alice"})

	info, err := os.Stat(f.root)
	if err != nil {
		t.Fatalf("root not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("root %s is not a directory", f.root)
	}
	if f.svc.Root() != f.root {
		t.Errorf("Root() = %q, want %q", f.svc.Root(), f.root)
	}
}

func TestNew_DefaultRoot(t *testing.T) {
	t.Chdir(t.TempDir())

	svc, err := New(Config{}, &mockDownloader{}, &osDirectories{}, sortedFinder{}, nil)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if svc.Root() != DefaultDownloadsDir {
		t.Errorf("Root() = %q, want %q", svc.Root(), DefaultDownloadsDir)
	}
	if _, err := os.Stat(DefaultDownloadsDir); err != nil {
		t.Errorf("default root not created: %v", err)
	}
}

func TestService_ProcessSuccess(t *testing.T) {
	f := newFixture(t, &mockDownloader{owner: "alice", files: []string{"XYZ.mp4"}})

	result := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if !result.Success {
		t.Fatalf("Process() failed: %s", result.ErrorMessage)
	}
	want := filepath.Join(f.root, "alice_XYZ", "XYZ.mp3")
	if result.ArtifactPath != want {
		t.Errorf("ArtifactPath = %q, want %q", result.ArtifactPath, want)
	}
	if result.Message != post.MessageCompleted {
		t.Errorf("Message = %q, want %q", result.Message, post.MessageCompleted)
	}
	if result.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", result.ErrorMessage)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
	if len(f.converter.media) != 1 || f.converter.media[0].closeCount != 1 {
		t.Errorf("media close counts wrong: %+v", f.converter.media)
	}
	if !strings.Contains(f.logs.String(), "workflow completed") {
		t.Errorf("expected completion log, got %q", f.logs.String())
	}
	if !strings.Contains(f.output.String(), "Extracting audio from XYZ.mp4") {
		t.Errorf("expected progress output, got %q", f.output.String())
	}
}

func TestService_ProcessItemDirectory(t *testing.T) {
	f := newFixture(t, &mockDownloader{owner: "alice", files: []string{"XYZ.mp4"}})

	f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	dir := filepath.Join(f.root, "alice_XYZ")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("item directory %s missing: %v", dir, err)
	}
	if len(f.downloader.downloadDir) != 1 || f.downloader.downloadDir[0] != dir {
		t.Errorf("download dir = %v, want %s", f.downloader.downloadDir, dir)
	}
}

func TestService_ProcessIdentifier(t *testing.T) {
	tests := []struct {
		url  string
		want post.Identifier
	}{
		{url: "https://www.instagram.com/p/ABC123/", want: "ABC123"},
		{url: "https://www.instagram.com/reel/ABC123?igsh=xyz", want: "ABC123"},
		{url: "ABC123", want: "ABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			f := newFixture(t, &mockDownloader{owner: "alice", files: []string{"ABC123.mp4"}})
			f.svc.Process(context.Background(), tt.url)
			if len(f.downloader.resolved) != 1 || f.downloader.resolved[0] != tt.want {
				t.Errorf("resolved = %v, want [%s]", f.downloader.resolved, tt.want)
			}
		})
	}
}

func TestService_ProcessTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, &mockDownloader{owner: "alice", files: []string{"XYZ.mp4"}})

	first := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")
	second := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if !first.Success || !second.Success {
		t.Fatalf("expected both runs to succeed: %+v / %+v", first, second)
	}
	if first.ArtifactPath != second.ArtifactPath {
		t.Errorf("artifact paths differ: %q vs %q", first.ArtifactPath, second.ArtifactPath)
	}

	entries, err := os.ReadDir(f.root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single item directory, got %d", len(entries))
	}
}

func TestService_ProcessSelectsSmallestName(t *testing.T) {
	f := newFixture(t, &mockDownloader{owner: "carol", files: []string{"XYZ_2.mp4", "XYZ_1.mp4", "cover.jpg"}})

	result := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if !result.Success {
		t.Fatalf("Process() failed: %s", result.ErrorMessage)
	}
	if want := filepath.Join(f.root, "carol_XYZ", "XYZ_1.mp3"); result.ArtifactPath != want {
		t.Errorf("ArtifactPath = %q, want %q", result.ArtifactPath, want)
	}
}

func TestService_ProcessFailures(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		setup     func(d *mockDownloader, c *mockConverter)
		wantStage string
		wantMsg   string
		wantClose int
	}{
		{
			name:      "empty identifier",
			url:       "///",
			setup:     func(d *mockDownloader, c *mockConverter) {},
			wantStage: StageIdentifier,
			wantMsg:   post.ErrEmptyIdentifier.Error(),
		},
		{
			name: "metadata lookup fails",
			url:  "https://www.instagram.com/p/XYZ/",
			setup: func(d *mockDownloader, c *mockConverter) {
				d.resolveErr = errors.New("login required")
			},
			wantStage: StageResolve,
			wantMsg:   "login required",
		},
		{
			name: "download fails",
			url:  "https://www.instagram.com/p/XYZ/",
			setup: func(d *mockDownloader, c *mockConverter) {
				d.downloadErr = errors.New("HTTP Error 404: Not Found")
			},
			wantStage: StageDownload,
			wantMsg:   "HTTP Error 404: Not Found",
		},
		{
			name: "no video downloaded",
			url:  "https://www.instagram.com/p/XYZ/",
			setup: func(d *mockDownloader, c *mockConverter) {
				d.files = []string{"XYZ.jpg"}
			},
			wantStage: StageDiscover,
			wantMsg:   "no video artifact found",
		},
		{
			name: "conversion fails",
			url:  "https://www.instagram.com/p/XYZ/",
			setup: func(d *mockDownloader, c *mockConverter) {
				c.writeErr = errors.New("Invalid data found when processing input")
			},
			wantStage: StageConvert,
			wantMsg:   "Invalid data found when processing input",
			wantClose: 1,
		},
		{
			name: "video has no audio",
			url:  "https://www.instagram.com/p/XYZ/",
			setup: func(d *mockDownloader, c *mockConverter) {
				c.trackErr = audio.ErrNoAudioStream
			},
			wantStage: StageConvert,
			wantMsg:   audio.ErrNoAudioStream.Error(),
			wantClose: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDownloader{owner: "alice", files: []string{"XYZ.mp4"}}
			f := newFixture(t, d)
			tt.setup(d, f.converter)

			result := f.svc.Process(context.Background(), tt.url)

			if result.Success {
				t.Fatal("Process() expected failure")
			}
			if result.Message != post.MessageFailed {
				t.Errorf("Message = %q, want %q", result.Message, post.MessageFailed)
			}
			if !strings.Contains(result.ErrorMessage, tt.wantMsg) {
				t.Errorf("ErrorMessage = %q, want it to contain %q", result.ErrorMessage, tt.wantMsg)
			}
			if result.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", result.Stage, tt.wantStage)
			}
			if result.ArtifactPath != "" {
				t.Errorf("ArtifactPath = %q, want empty", result.ArtifactPath)
			}
			for _, m := range f.converter.media {
				if m.closeCount != 1 {
					t.Errorf("media closed %d times, want 1", m.closeCount)
				}
			}
			if len(f.converter.media) != tt.wantClose {
				t.Errorf("opened %d media, want %d", len(f.converter.media), tt.wantClose)
			}
			logs := f.logs.String()
			if !strings.Contains(logs, "workflow failed") || !strings.Contains(logs, "stage="+tt.wantStage) {
				t.Errorf("expected failure log with stage, got %q", logs)
			}
		})
	}
}

func TestService_ProcessDelegatedErrorTextUnchanged(t *testing.T) {
	d := &mockDownloader{owner: "alice", downloadErr: errors.New("Requested content is not available")}
	f := newFixture(t, d)

	result := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if result.ErrorMessage != "Requested content is not available" {
		t.Errorf("ErrorMessage = %q, want the downloader's text unchanged", result.ErrorMessage)
	}
}

func TestService_ProcessPrepareFails(t *testing.T) {
	d := &mockDownloader{owner: "alice"}
	extractor := appaudio.NewExtractService(&mockConverter{}, osFileChecker{}, audio.Settings{})
	svc, err := New(Config{DownloadsDir: t.TempDir()}, d, &osDirectories{err: errors.New("permission denied")}, sortedFinder{}, extractor)
	if err != nil {
		t.Fatal(err)
	}

	result := svc.Process(context.Background(), "XYZ")

	if result.Success || result.Stage != StagePrepare || result.ErrorMessage != "permission denied" {
		t.Errorf("result = %+v", result)
	}
	if len(d.downloadDir) != 0 {
		t.Error("download attempted after directory failure")
	}
}

func TestService_ProcessRecoversPanic(t *testing.T) {
	f := newFixture(t, &mockDownloader{panicMsg: "boom"})

	result := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if result.Success {
		t.Fatal("Process() expected failure")
	}
	if result.ErrorMessage != "boom" || result.Message != post.MessageFailed {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(f.logs.String(), "workflow panicked") {
		t.Errorf("expected panic log, got %q", f.logs.String())
	}
}

func TestStageError(t *testing.T) {
	cause := post.ErrNoVideoArtifact
	err := error(&StageError{Stage: StageDiscover, Err: cause})

	if err.Error() != cause.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), cause.Error())
	}
	if !errors.Is(err, post.ErrNoVideoArtifact) {
		t.Error("errors.Is should see the wrapped cause")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageDiscover {
		t.Errorf("errors.As() stage = %v", se)
	}
}

// fixedFinder implements post.ArtifactFinder returning one named file in dir
type fixedFinder struct {
	name string
}

func (f fixedFinder) FindVideo(dir string) (string, error) {
	return filepath.Join(dir, f.name), nil
}

func TestService_ProcessConfiguredVideoExtension(t *testing.T) {
	tests := []struct {
		name        string
		opts        []appaudio.ExtractOption
		wantSuccess bool
	}{
		{name: "extension not accepted by extractor", wantSuccess: false},
		{name: "extension passed to extractor", opts: []appaudio.ExtractOption{appaudio.WithSourceExtensions([]string{".mp4", ".m4v"})}, wantSuccess: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDownloader{owner: "alice", files: []string{"XYZ.m4v"}}
			extractor := appaudio.NewExtractService(&mockConverter{}, osFileChecker{}, audio.Settings{}, tt.opts...)
			root := t.TempDir()
			svc, err := New(Config{DownloadsDir: root}, d, &osDirectories{}, fixedFinder{name: "XYZ.m4v"}, extractor)
			if err != nil {
				t.Fatal(err)
			}

			result := svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

			if result.Success != tt.wantSuccess {
				t.Fatalf("Success = %v, want %v (result %+v)", result.Success, tt.wantSuccess, result)
			}
			if tt.wantSuccess {
				if want := filepath.Join(root, "alice_XYZ", "XYZ.mp3"); result.ArtifactPath != want {
					t.Errorf("ArtifactPath = %q, want %q", result.ArtifactPath, want)
				}
			} else if result.Stage != StageConvert {
				t.Errorf("Stage = %q, want %q", result.Stage, StageConvert)
			}
		})
	}
}

func TestService_ProcessFallsBackToWAV(t *testing.T) {
	d := &mockDownloader{owner: "alice", files: []string{"XYZ.mp4"}}
	f := newFixture(t, d)
	f.converter.failFormat = audio.FormatMP3

	result := f.svc.Process(context.Background(), "https://www.instagram.com/p/XYZ/")

	if !result.Success {
		t.Fatalf("Process() failed: %+v", result)
	}
	want := filepath.Join(f.root, "alice_XYZ", "XYZ.wav")
	if result.ArtifactPath != want {
		t.Errorf("ArtifactPath = %q, want %q", result.ArtifactPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("fallback artifact missing: %v", err)
	}
	if !strings.Contains(f.logs.String(), "wrote wav instead") {
		t.Errorf("expected fallback warning in logs, got %q", f.logs.String())
	}
	if !strings.Contains(f.output.String(), "MP3 encoding failed, wrote XYZ.wav instead") {
		t.Errorf("expected fallback progress line, got %q", f.output.String())
	}
}
