package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	appaudio "reel-audio/application/audio"
	appdist "reel-audio/application/distribution"
	"reel-audio/application/workflow"
	"reel-audio/domain/audio"
	"reel-audio/domain/distribution"
	"reel-audio/domain/post"
	"reel-audio/infrastructure/config"
	"reel-audio/infrastructure/drive"
	"reel-audio/infrastructure/ffmpeg"
	"reel-audio/infrastructure/filesystem"
	"reel-audio/infrastructure/ytdlp"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Output formats for command results
const (
	OutputText = "text"
	OutputJSON = "json"
)

var (
	processParallel int
	processUpload   bool
	processOutput   string
)

var processCmd = &cobra.Command{
	Use:   "process URL [URL...]",
	Short: "Download posts and extract the audio of their videos",
	Long: `Process one or more post URLs through the complete workflow:
1. Take the post identifier from the URL's last path segment
2. Resolve the post's owner with yt-dlp
3. Create downloads/{owner}_{identifier}/
4. Download the post's media into it
5. Pick the video file (smallest filename when there are several)
6. Extract its audio next to it (same name, .mp3 or .wav)

Every URL yields a result record. With --output json each record is printed as
one JSON object per line; JSON is the default when stdout is not a terminal.
The command exits non-zero when any URL failed.

Example:
  reel-audio process https://www.instagram.com/reel/DKCl8SvxMAR/
  reel-audio process --parallel 3 --output json URL1 URL2 URL3
  reel-audio process --upload https://www.instagram.com/p/ABC123/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().IntVar(&processParallel, "parallel", 1, "Number of URLs processed concurrently")
	processCmd.Flags().BoolVar(&processUpload, "upload", false, "Upload each extracted audio file to Google Drive with sharing")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "Result format: text or json (default text on a terminal, json otherwise)")
}

// URLProcessor runs the download-and-convert workflow for one URL
type URLProcessor interface {
	Process(ctx context.Context, url string) post.Result
}

// AudioUploader uploads a derived audio file and returns its share link
type AudioUploader interface {
	UploadAudio(ctx context.Context, audioPath string) (*distribution.UploadResult, error)
}

// ProcessOptions contains the settings of a process run
type ProcessOptions struct {
	URLs     []string
	Parallel int
	Format   string
}

// processRecord is the printed form of a result
type processRecord struct {
	post.Result
	URL         string `json:"url"`
	ShareURL    string `json:"shareUrl,omitempty"`
	UploadError string `json:"uploadError,omitempty"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(processOutput, os.Stdout)
	if err != nil {
		return err
	}

	// Progress shares stdout only when results are human-readable
	var progress io.Writer = os.Stdout
	if format == OutputJSON {
		progress = os.Stderr
	}

	ctx := cmd.Context()

	svc, err := newWorkflow(cfg, progress)
	if err != nil {
		return err
	}

	var uploader AudioUploader
	if processUpload {
		client, err := drive.Open(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to create Google Drive client: %w", err)
		}
		uploader = appdist.NewUploadService(client, cfg.Google.FolderID, progress)
	}

	return RunProcessWithDependencies(ctx, svc, uploader, ProcessOptions{
		URLs:     args,
		Parallel: processParallel,
		Format:   format,
	}, os.Stdout)
}

// newWorkflow wires the production adapters into a workflow service
func newWorkflow(cfg *config.Config, progress io.Writer) (*workflow.Service, error) {
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	downloader := ytdlp.NewClient(
		ytdlp.WithExecutable(cfg.Downloader.Executable),
		ytdlp.WithCookiesFile(cfg.Downloader.CookiesFile),
		ytdlp.WithPostURLTemplate(cfg.Downloader.PostURLTemplate),
	)
	converter := ffmpeg.NewConverter(
		ffmpeg.WithFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
	)
	extractor := newExtractor(cfg, converter)

	return workflow.New(
		workflow.Config{DownloadsDir: cfg.Paths.DownloadsDirectory},
		downloader,
		filesystem.NewDirectories(),
		filesystem.NewVideoFinder(cfg.Downloader.VideoExtensions),
		extractor,
		workflow.WithLogger(logger),
		workflow.WithOutput(progress),
	)
}

// newExtractor builds the audio extractor, accepting every configured video extension
func newExtractor(cfg *config.Config, converter audio.Converter) *appaudio.ExtractService {
	return appaudio.NewExtractService(converter, filesystem.NewChecker(), cfg.AudioSettings(),
		appaudio.WithSourceExtensions(cfg.Downloader.VideoExtensions))
}

// resolveOutputFormat validates an explicit format or picks one from whether out is a terminal
func resolveOutputFormat(format string, out *os.File) (string, error) {
	switch format {
	case OutputText, OutputJSON:
		return format, nil
	case "":
		if term.IsTerminal(int(out.Fd())) {
			return OutputText, nil
		}
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}

// RunProcessWithDependencies runs the process command with injected dependencies (for testing).
// Records are printed in input order once every URL has finished.
func RunProcessWithDependencies(
	ctx context.Context,
	processor URLProcessor,
	uploader AudioUploader,
	opts ProcessOptions,
	output OutputWriter,
) error {
	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	records := make([]processRecord, len(opts.URLs))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, url := range opts.URLs {
		g.Go(func() error {
			rec := processRecord{Result: processor.Process(ctx, url), URL: url}
			if rec.Success && uploader != nil {
				uploaded, err := uploader.UploadAudio(ctx, rec.ArtifactPath)
				if err != nil {
					rec.UploadError = err.Error()
				} else {
					rec.ShareURL = uploaded.ShareableURL
				}
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, rec := range records {
		if !rec.Success || rec.UploadError != "" {
			failed++
		}
		if err := printRecord(output, opts.Format, rec); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d posts failed", failed, len(records))
	}
	return nil
}

func printRecord(w OutputWriter, format string, rec processRecord) error {
	if format == OutputJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if !rec.Success {
		fmt.Fprintf(w, "FAILED %s\n  %s\n", rec.URL, rec.ErrorMessage)
		return nil
	}

	size := ""
	if info, err := os.Stat(rec.ArtifactPath); err == nil {
		size = " (" + humanize.IBytes(uint64(info.Size())) + ")"
	}
	fmt.Fprintf(w, "OK     %s\n  %s%s\n", rec.URL, rec.ArtifactPath, size)
	if rec.ShareURL != "" {
		fmt.Fprintf(w, "  %s\n", rec.ShareURL)
	}
	if rec.UploadError != "" {
		fmt.Fprintf(w, "  upload failed: %s\n", rec.UploadError)
	}
	return nil
}
