//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appaudio "reel-audio/application/audio"
	"reel-audio/cmd"
	"reel-audio/domain/audio"
	"reel-audio/infrastructure/ffmpeg"
	"reel-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// extractContext holds test state for extract scenarios
type extractContext struct {
	tempDir    string
	sourcePath string
	outputDir  string
	settings   audio.Settings
	converter  *mockConverter
	output     *bytes.Buffer
	err        error
}

// SharedExtractContext is reset before each scenario via Before hook
var SharedExtractContext *extractContext

func getExtractContext() *extractContext {
	return SharedExtractContext
}

func InitializeExtractScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "extract-test-*")
		if err != nil {
			return c, err
		}
		SharedExtractContext = &extractContext{
			tempDir:   tempDir,
			converter: &mockConverter{},
			output:    &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if e := SharedExtractContext; e != nil {
			os.RemoveAll(e.tempDir)
		}
		SharedExtractContext = nil
		return c, nil
	})

	ctx.Step(`^a local media file "([^"]*)"$`, aLocalMediaFile)
	ctx.Step(`^an empty local media file "([^"]*)"$`, anEmptyLocalMediaFile)
	ctx.Step(`^the audio format is "([^"]*)"$`, theAudioFormatIs)
	ctx.Step(`^audio is resampled to (\d+) Hz with (\d+) channels?$`, audioIsResampledTo)
	ctx.Step(`^the audio output directory is "([^"]*)"$`, theAudioOutputDirectoryIs)
	ctx.Step(`^I extract audio from "([^"]*)"$`, iExtractAudioFrom)
	ctx.Step(`^I extract audio from "([^"]*)" with bitrate "([^"]*)"$`, iExtractAudioFromWithBitrate)
	ctx.Step(`^the extraction should succeed$`, theExtractionShouldSucceed)
	ctx.Step(`^the extraction should fail with "([^"]*)"$`, theExtractionShouldFailWith)
	ctx.Step(`^the audio file "([^"]*)" should exist$`, theAudioFileShouldExist)
	ctx.Step(`^ffmpeg should have been called with audio arguments:$`, ffmpegShouldHaveBeenCalledWithAudioArguments)
}

func (e *extractContext) path(name string) string {
	return filepath.Join(e.tempDir, filepath.FromSlash(name))
}

func aLocalMediaFile(name string) error {
	e := getExtractContext()
	return os.WriteFile(e.path(name), []byte("media"), 0644)
}

func anEmptyLocalMediaFile(name string) error {
	e := getExtractContext()
	return os.WriteFile(e.path(name), nil, 0644)
}

func theAudioFormatIs(format string) error {
	f, err := audio.ParseFormat(format)
	if err != nil {
		return err
	}
	getExtractContext().settings.Format = f
	return nil
}

func audioIsResampledTo(rate, channels int) error {
	e := getExtractContext()
	e.settings.SampleRate = rate
	e.settings.Channels = channels
	return nil
}

func theAudioOutputDirectoryIs(dir string) error {
	e := getExtractContext()
	e.outputDir = e.path(dir)
	return nil
}

func iExtractAudioFrom(name string) error {
	return runExtract(name, "")
}

func iExtractAudioFromWithBitrate(name, bitrate string) error {
	return runExtract(name, bitrate)
}

func runExtract(name, bitrate string) error {
	e := getExtractContext()
	e.sourcePath = e.path(name)
	e.err = cmd.RunExtractAudioWithDependencies(
		context.Background(),
		e.converter,
		filesystem.NewChecker(),
		e.settings,
		appaudio.ExtractInput{
			SourcePath: e.sourcePath,
			OutputDir:  e.outputDir,
			Bitrate:    bitrate,
		},
		e.output,
	)
	return nil
}

func theExtractionShouldSucceed() error {
	e := getExtractContext()
	if e.err != nil {
		return fmt.Errorf("unexpected error: %v", e.err)
	}
	if !strings.Contains(e.output.String(), "Successfully created:") {
		return fmt.Errorf("expected success output, got %q", e.output.String())
	}
	return nil
}

func theExtractionShouldFailWith(message string) error {
	e := getExtractContext()
	if e.err == nil {
		return fmt.Errorf("expected an error containing %q", message)
	}
	if !strings.Contains(e.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, e.err.Error())
	}
	if len(e.converter.media) != 0 {
		return fmt.Errorf("media was opened for an invalid source")
	}
	return nil
}

func theAudioFileShouldExist(name string) error {
	e := getExtractContext()
	if _, err := os.Stat(e.path(name)); err != nil {
		return fmt.Errorf("audio file %s missing: %w", name, err)
	}
	return nil
}

func ffmpegShouldHaveBeenCalledWithAudioArguments(table *godog.Table) error {
	e := getExtractContext()
	if len(e.converter.writes) == 0 {
		return fmt.Errorf("no extraction was performed")
	}

	call := e.converter.writes[0]
	track := &audio.AudioTrack{SourcePath: call.req.SourcePath, StreamIndex: 1}
	args := ffmpeg.BuildArgs(track, call.req, call.outputPath)

	for _, row := range table.Rows[1:] {
		flag := row.Cells[0].Value
		want := row.Cells[1].Value
		found := false
		for i := 0; i < len(args)-1; i++ {
			if args[i] == flag {
				found = true
				if args[i+1] != want {
					return fmt.Errorf("expected %s %s, got %s %s", flag, want, flag, args[i+1])
				}
				break
			}
		}
		if !found {
			return fmt.Errorf("flag %s missing from %s", flag, strings.Join(args, " "))
		}
	}
	return nil
}

