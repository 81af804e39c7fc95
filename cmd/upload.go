package cmd

import (
	"context"
	"fmt"
	"os"

	appdist "reel-audio/application/distribution"
	"reel-audio/domain/distribution"
	"reel-audio/infrastructure/drive"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadAudioPath string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an audio file to Google Drive with public sharing",
	Long: `Upload an extracted audio file to the configured Google Drive folder and
make it accessible to anyone with the link. A file with the same name in the
folder is replaced.

Both service account keys and OAuth client secrets are accepted as
google.credentials_file; OAuth tokens are cached in google.token_file.

Example:
  reel-audio upload --audio downloads/alice_XYZ/XYZ.mp3`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadAudioPath, "audio", "", "Path to audio file (required)")
	uploadCmd.MarkFlagRequired("audio")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cfg.Google.FolderID == "" {
		return appdist.ErrFolderNotConfigured
	}

	ctx := cmd.Context()
	client, err := drive.Open(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, client, cfg.Google.FolderID, uploadAudioPath, os.Stdout)
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	client distribution.DriveClient,
	folderID string,
	audioPath string,
	output OutputWriter,
) error {
	service := appdist.NewUploadService(client, folderID, output)

	fmt.Fprintf(output, "Uploading %s...\n", audioPath)

	result, err := service.UploadAudio(ctx, audioPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Uploaded %s (%s)\n", result.FileName, humanize.IBytes(uint64(result.Size)))
	fmt.Fprintf(output, "Share link: %s\n", result.ShareableURL)
	return nil
}
