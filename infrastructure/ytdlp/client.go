package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reel-audio/domain/post"

	"github.com/lrstanley/go-ytdlp"
)

// DefaultOutputTemplate names downloaded files by the media id
const DefaultOutputTemplate = "%(id)s.%(ext)s"

// Executor defines the yt-dlp operations the client needs
// This allows mocking the yt-dlp process in tests
type Executor interface {
	// DumpJSON returns the single-JSON metadata document for url without downloading
	DumpJSON(ctx context.Context, url string) ([]byte, error)

	// Download fetches url using the given output template
	Download(ctx context.Context, url, outputTemplate string) error

	// Version returns the installed yt-dlp version
	Version(ctx context.Context) (string, error)
}

// GoYTDLPExecutor is the production implementation using go-ytdlp
type GoYTDLPExecutor struct {
	executable  string
	cookiesFile string
}

func (e *GoYTDLPExecutor) command() *ytdlp.Command {
	dl := ytdlp.New()
	if e.executable != "" {
		dl = dl.SetExecutable(e.executable)
	}
	if e.cookiesFile != "" {
		dl = dl.Cookies(e.cookiesFile)
	}
	return dl
}

// dumpCommand builds the metadata lookup: a single JSON document, nothing downloaded
func (e *GoYTDLPExecutor) dumpCommand() *ytdlp.Command {
	return e.command().
		SkipDownload().
		DumpSingleJSON()
}

// downloadCommand builds the media download into outputTemplate
func (e *GoYTDLPExecutor) downloadCommand(outputTemplate string) *ytdlp.Command {
	return e.command().
		RestrictFilenames().
		Output(outputTemplate)
}

// DumpJSON implements Executor
func (e *GoYTDLPExecutor) DumpJSON(ctx context.Context, url string) ([]byte, error) {
	res, err := e.dumpCommand().Run(ctx, url)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

// Download implements Executor
func (e *GoYTDLPExecutor) Download(ctx context.Context, url, outputTemplate string) error {
	_, err := e.downloadCommand(outputTemplate).Run(ctx, url)
	return err
}

// Version implements Executor
func (e *GoYTDLPExecutor) Version(ctx context.Context) (string, error) {
	res, err := e.command().Version(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Client implements post.Downloader on top of yt-dlp
type Client struct {
	executor    Executor
	urlTemplate string
	executable  string
	cookiesFile string
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithExecutor sets a custom executor (for testing)
func WithExecutor(e Executor) ClientOption {
	return func(c *Client) {
		c.executor = e
	}
}

// WithExecutable sets the yt-dlp executable path
func WithExecutable(path string) ClientOption {
	return func(c *Client) {
		c.executable = path
	}
}

// WithCookiesFile passes a Netscape cookies file to yt-dlp for authenticated posts
func WithCookiesFile(path string) ClientOption {
	return func(c *Client) {
		c.cookiesFile = path
	}
}

// WithPostURLTemplate sets the fmt template turning an identifier into a URL
func WithPostURLTemplate(tmpl string) ClientOption {
	return func(c *Client) {
		if tmpl != "" {
			c.urlTemplate = tmpl
		}
	}
}

// NewClient creates a new yt-dlp backed downloader
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		urlTemplate: "https://www.instagram.com/p/%s/",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.executor == nil {
		c.executor = &GoYTDLPExecutor{
			executable:  c.executable,
			cookiesFile: c.cookiesFile,
		}
	}

	return c
}

// PostURL returns the URL requested for id
func (c *Client) PostURL(id post.Identifier) string {
	return fmt.Sprintf(c.urlTemplate, id)
}

// extractedInfo is the subset of yt-dlp's info dict we read
type extractedInfo struct {
	ID         string          `json:"id"`
	Type       string          `json:"_type"`
	Title      string          `json:"title"`
	Channel    string          `json:"channel"`
	UploaderID string          `json:"uploader_id"`
	Uploader   string          `json:"uploader"`
	Extractor  string          `json:"extractor_key"`
	Duration   float64         `json:"duration"`
	WebpageURL string          `json:"webpage_url"`
	Entries    []extractedInfo `json:"entries"`
}

// owner picks the account handle, falling back to the first entry of a multi-item post
func (i *extractedInfo) owner() string {
	for _, v := range []string{i.Channel, i.UploaderID, i.Uploader} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	for idx := range i.Entries {
		if o := i.Entries[idx].owner(); o != "" {
			return o
		}
	}
	return ""
}

// ResolveItem implements post.Downloader
func (c *Client) ResolveItem(ctx context.Context, id post.Identifier) (*post.Item, error) {
	url := c.PostURL(id)

	data, err := c.executor.DumpJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata lookup failed: %w", err)
	}

	var info extractedInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}

	item, err := post.NewItem(id, info.owner(), url)
	if err != nil {
		return nil, err
	}
	item.Title = info.Title
	item.Extractor = info.Extractor
	item.Duration = time.Duration(info.Duration * float64(time.Second))

	return item, nil
}

// DownloadItem implements post.Downloader
func (c *Client) DownloadItem(ctx context.Context, item *post.Item, targetDir string) error {
	url := item.URL
	if url == "" {
		url = c.PostURL(item.Identifier)
	}

	if err := c.executor.Download(ctx, url, filepath.Join(targetDir, DefaultOutputTemplate)); err != nil {
		return fmt.Errorf("yt-dlp download failed: %w", err)
	}
	return nil
}

// VerifyInstalled checks that yt-dlp can be executed
func (c *Client) VerifyInstalled(ctx context.Context) error {
	if _, err := c.executor.Version(ctx); err != nil {
		return fmt.Errorf("yt-dlp not found or not executable: %w", err)
	}
	return nil
}

// Version returns the installed yt-dlp version string
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.executor.Version(ctx)
}

// Ensure Client implements post.Downloader
var _ post.Downloader = (*Client)(nil)
