package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	appaudio "reel-audio/application/audio"
	"reel-audio/domain/post"

	"github.com/google/uuid"
)

// Stages of a workflow run, used to tag failures
const (
	StageIdentifier = "identifier"
	StageResolve    = "resolve"
	StagePrepare    = "prepare"
	StageDownload   = "download"
	StageDiscover   = "discover"
	StageConvert    = "convert"
)

// DefaultDownloadsDir is the storage root used when none is configured
const DefaultDownloadsDir = "downloads"

// StageError tags an error with the step that produced it.
// Its text is the wrapped error's text, unchanged.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config holds the settings the workflow is built with
type Config struct {
	DownloadsDir string
}

// Service downloads a post and extracts the audio of its video
type Service struct {
	downloader post.Downloader
	dirs       post.DirectoryPreparer
	finder     post.ArtifactFinder
	extractor  *appaudio.ExtractService
	root       string
	logger     *slog.Logger
	output     io.Writer
}

// Option is a functional option for configuring Service
type Option func(*Service)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithOutput sets the writer that receives progress lines
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		s.output = w
	}
}

// New creates the workflow and its storage root
func New(
	cfg Config,
	downloader post.Downloader,
	dirs post.DirectoryPreparer,
	finder post.ArtifactFinder,
	extractor *appaudio.ExtractService,
	opts ...Option,
) (*Service, error) {
	root := cfg.DownloadsDir
	if root == "" {
		root = DefaultDownloadsDir
	}

	s := &Service{
		downloader: downloader,
		dirs:       dirs,
		finder:     finder,
		extractor:  extractor,
		root:       root,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		output:     io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}

	return s, nil
}

// Root returns the storage root directory
func (s *Service) Root() string {
	return s.root
}

// Process runs the workflow for one URL. It never returns an error: every failure,
// including a panic in a collaborator, is reported through the Result.
func (s *Service) Process(ctx context.Context, url string) (result post.Result) {
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID), slog.String("url", url))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := &StageError{Stage: "panic", Err: fmt.Errorf("%v", r)}
			logger.Error("workflow panicked", slog.Any("panic", r))
			result = post.Failed(url, err.Stage, err)
		}
	}()

	artifactPath, err := s.run(ctx, logger, url)
	if err != nil {
		stage := ""
		if se, ok := err.(*StageError); ok {
			stage = se.Stage
		}
		logger.Error("workflow failed",
			slog.String("stage", stage),
			slog.String("error_type", fmt.Sprintf("%T", unwrapStage(err))),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return post.Failed(url, stage, err)
	}

	logger.Info("workflow completed",
		slog.String("artifact", artifactPath),
		slog.Duration("duration", time.Since(start)),
	)
	return post.Completed(url, artifactPath)
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, url string) (string, error) {
	// Step 1: Identifier
	id, err := post.ParseIdentifier(url)
	if err != nil {
		return "", &StageError{Stage: StageIdentifier, Err: err}
	}
	logger.Debug("identifier extracted", slog.String("identifier", id.String()))

	// Step 2: Resolve metadata
	fmt.Fprintf(s.output, "Resolving %s...\n", id)
	item, err := s.downloader.ResolveItem(ctx, id)
	if err != nil {
		return "", &StageError{Stage: StageResolve, Err: err}
	}
	logger.Debug("item resolved", slog.String("owner", item.OwnerName), slog.String("extractor", item.Extractor))

	// Step 3: Item directory
	dir, err := s.dirs.Prepare(s.root, item.DirName())
	if err != nil {
		return "", &StageError{Stage: StagePrepare, Err: err}
	}

	// Step 4: Download
	fmt.Fprintf(s.output, "Downloading %s by %s into %s...\n", id, item.OwnerName, dir)
	if err := s.downloader.DownloadItem(ctx, item, dir); err != nil {
		return "", &StageError{Stage: StageDownload, Err: err}
	}

	// Step 5: Locate the video
	videoPath, err := s.finder.FindVideo(dir)
	if err != nil {
		return "", &StageError{Stage: StageDiscover, Err: err}
	}
	logger.Debug("video artifact selected", slog.String("path", videoPath))

	// Step 6: Extract audio
	fmt.Fprintf(s.output, "Extracting audio from %s...\n", filepath.Base(videoPath))
	extracted, err := s.extractor.ExtractTo(ctx, videoPath)
	if err != nil {
		return "", &StageError{Stage: StageConvert, Err: err}
	}
	if extracted.FallbackCause != nil {
		logger.Warn("mp3 encoding failed, wrote wav instead",
			slog.String("error", extracted.FallbackCause.Error()),
			slog.String("artifact", extracted.OutputPath),
		)
		fmt.Fprintf(s.output, "MP3 encoding failed, wrote %s instead\n", filepath.Base(extracted.OutputPath))
	}

	return extracted.OutputPath, nil
}

func unwrapStage(err error) error {
	if se, ok := err.(*StageError); ok {
		return se.Err
	}
	return err
}
