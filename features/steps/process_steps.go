//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appaudio "reel-audio/application/audio"
	"reel-audio/application/workflow"
	"reel-audio/cmd"
	"reel-audio/domain/audio"
	"reel-audio/domain/post"
	"reel-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// fakePost describes what the fake site serves for one identifier
type fakePost struct {
	owner       string
	files       []string
	downloadErr error
}

// fakeDownloader implements post.Downloader against an in-memory set of posts
type fakeDownloader struct {
	posts    map[post.Identifier]*fakePost
	resolved []post.Identifier
}

func (d *fakeDownloader) ResolveItem(ctx context.Context, id post.Identifier) (*post.Item, error) {
	d.resolved = append(d.resolved, id)
	p, ok := d.posts[id]
	if !ok {
		return nil, fmt.Errorf("ERROR: [Instagram] %s: Requested content is not available", id)
	}
	return post.NewItem(id, p.owner, "https://www.instagram.com/p/"+string(id)+"/")
}

func (d *fakeDownloader) DownloadItem(ctx context.Context, item *post.Item, targetDir string) error {
	p := d.posts[item.Identifier]
	if p.downloadErr != nil {
		return p.downloadErr
	}
	for _, name := range p.files {
		if err := os.WriteFile(filepath.Join(targetDir, name), []byte("media"), 0644); err != nil {
			return err
		}
	}
	return nil
}

// processContext holds test state for process scenarios
type processContext struct {
	root       string
	downloader *fakeDownloader
	converter  *mockConverter
	output     *bytes.Buffer
	result     map[string]any
	err        error
}

// SharedProcessContext is reset before each scenario via Before hook
var SharedProcessContext *processContext

func getProcessContext() *processContext {
	return SharedProcessContext
}

func InitializeProcessScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedProcessContext = &processContext{
			downloader: &fakeDownloader{posts: make(map[post.Identifier]*fakePost)},
			converter:  &mockConverter{},
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if p := SharedProcessContext; p != nil && p.root != "" {
			os.RemoveAll(filepath.Dir(p.root))
		}
		SharedProcessContext = nil
		return c, nil
	})

	ctx.Step(`^an empty downloads directory$`, anEmptyDownloadsDirectory)
	ctx.Step(`^the post "([^"]*)" is owned by "([^"]*)" and contains "([^"]*)"$`, thePostIsOwnedByAndContains)
	ctx.Step(`^the post "([^"]*)" is owned by "([^"]*)" and the download fails with "([^"]*)"$`, thePostIsOwnedByAndTheDownloadFailsWith)
	ctx.Step(`^audio conversion fails with "([^"]*)"$`, audioConversionFailsWith)
	ctx.Step(`^I process "([^"]*)"$`, iProcess)
	ctx.Step(`^the result should be successful$`, theResultShouldBeSuccessful)
	ctx.Step(`^the result should have failed with "([^"]*)"$`, theResultShouldHaveFailedWith)
	ctx.Step(`^the result message should be "([^"]*)"$`, theResultMessageShouldBe)
	ctx.Step(`^the artifact should be "([^"]*)"$`, theArtifactShouldBe)
	ctx.Step(`^the directory "([^"]*)" should exist$`, theDirectoryShouldExist)
	ctx.Step(`^the downloader should have been asked for "([^"]*)"$`, theDownloaderShouldHaveBeenAskedFor)
	ctx.Step(`^every opened media file should have been released$`, everyOpenedMediaFileShouldHaveBeenReleased)
	ctx.Step(`^the downloads directory should contain (\d+) item director(?:y|ies)$`, theDownloadsDirectoryShouldContainItemDirectories)
}

func anEmptyDownloadsDirectory() error {
	p := getProcessContext()
	tempDir, err := os.MkdirTemp("", "process-test-*")
	if err != nil {
		return err
	}
	p.root = filepath.Join(tempDir, "downloads")
	return nil
}

func thePostIsOwnedByAndContains(id, owner, files string) error {
	p := getProcessContext()
	var names []string
	for _, f := range strings.Split(files, ",") {
		names = append(names, strings.TrimSpace(f))
	}
	p.downloader.posts[post.Identifier(id)] = &fakePost{owner: owner, files: names}
	return nil
}

func thePostIsOwnedByAndTheDownloadFailsWith(id, owner, message string) error {
	p := getProcessContext()
	p.downloader.posts[post.Identifier(id)] = &fakePost{owner: owner, downloadErr: errors.New(message)}
	return nil
}

func audioConversionFailsWith(message string) error {
	getProcessContext().converter.failError = errors.New(message)
	return nil
}

func iProcess(url string) error {
	p := getProcessContext()

	extractor := appaudio.NewExtractService(p.converter, filesystem.NewChecker(), audio.Settings{})
	svc, err := workflow.New(
		workflow.Config{DownloadsDir: p.root},
		p.downloader,
		filesystem.NewDirectories(),
		filesystem.NewVideoFinder(nil),
		extractor,
	)
	if err != nil {
		return err
	}

	p.output.Reset()
	p.err = cmd.RunProcessWithDependencies(context.Background(), svc, nil, cmd.ProcessOptions{
		URLs:   []string{url},
		Format: cmd.OutputJSON,
	}, p.output)

	p.result = nil
	if err := json.Unmarshal(bytes.TrimSpace(p.output.Bytes()), &p.result); err != nil {
		return fmt.Errorf("output is not a JSON record: %v (%q)", err, p.output.String())
	}
	return nil
}

func theResultShouldBeSuccessful() error {
	p := getProcessContext()
	if p.result["success"] != true {
		return fmt.Errorf("expected success, got %v", p.result)
	}
	if p.result["message"] != post.MessageCompleted {
		return fmt.Errorf("expected message %q, got %v", post.MessageCompleted, p.result["message"])
	}
	if p.err != nil {
		return fmt.Errorf("expected no command error, got %v", p.err)
	}
	return nil
}

func theResultShouldHaveFailedWith(message string) error {
	p := getProcessContext()
	if p.result["success"] != false {
		return fmt.Errorf("expected failure, got %v", p.result)
	}
	got, _ := p.result["errorMessage"].(string)
	if !strings.Contains(got, message) {
		return fmt.Errorf("expected errorMessage containing %q, got %q", message, got)
	}
	if _, ok := p.result["artifactPath"]; ok {
		return fmt.Errorf("failed result should not carry an artifactPath: %v", p.result)
	}
	if p.err == nil {
		return fmt.Errorf("expected the command to report a failure")
	}
	return nil
}

func theResultMessageShouldBe(message string) error {
	p := getProcessContext()
	if p.result["message"] != message {
		return fmt.Errorf("expected message %q, got %v", message, p.result["message"])
	}
	return nil
}

func theArtifactShouldBe(rel string) error {
	p := getProcessContext()
	want := filepath.Join(p.root, filepath.FromSlash(rel))
	if p.result["artifactPath"] != want {
		return fmt.Errorf("expected artifactPath %q, got %v", want, p.result["artifactPath"])
	}
	if _, err := os.Stat(want); err != nil {
		return fmt.Errorf("artifact not written: %w", err)
	}
	return nil
}

func theDirectoryShouldExist(rel string) error {
	p := getProcessContext()
	info, err := os.Stat(filepath.Join(p.root, rel))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", rel)
	}
	return nil
}

func theDownloaderShouldHaveBeenAskedFor(id string) error {
	p := getProcessContext()
	if len(p.downloader.resolved) == 0 || p.downloader.resolved[0] != post.Identifier(id) {
		return fmt.Errorf("expected identifier %q, got %v", id, p.downloader.resolved)
	}
	return nil
}

func everyOpenedMediaFileShouldHaveBeenReleased() error {
	p := getProcessContext()
	if len(p.converter.media) == 0 {
		return fmt.Errorf("no media was opened")
	}
	if !p.converter.allReleased() {
		return fmt.Errorf("media not released exactly once")
	}
	return nil
}

func theDownloadsDirectoryShouldContainItemDirectories(count int) error {
	p := getProcessContext()
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return err
	}
	if len(entries) != count {
		return fmt.Errorf("expected %d item directories, got %d", count, len(entries))
	}
	return nil
}
