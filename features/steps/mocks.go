//go:build integration

package steps

import (
	"context"
	"os"

	"reel-audio/domain/audio"
)

// mockMedia counts how often it was released
type mockMedia struct {
	closeCount int
}

func (m *mockMedia) AudioTrack() (*audio.AudioTrack, error) {
	return &audio.AudioTrack{StreamIndex: 1, Codec: "aac", SampleRate: 44100, Channels: 2}, nil
}

func (m *mockMedia) Close() error {
	m.closeCount++
	return nil
}

// writeCall records one WriteAudio invocation
type writeCall struct {
	req        *audio.ExtractionRequest
	outputPath string
}

// mockConverter implements audio.Converter without ffmpeg, writing a small file per extraction
type mockConverter struct {
	media     []*mockMedia
	writes    []writeCall
	failError error
}

func (m *mockConverter) OpenMedia(ctx context.Context, path string) (audio.Media, error) {
	media := &mockMedia{}
	m.media = append(m.media, media)
	return media, nil
}

func (m *mockConverter) WriteAudio(ctx context.Context, track *audio.AudioTrack, req *audio.ExtractionRequest, outputPath string) error {
	if m.failError != nil {
		return m.failError
	}
	m.writes = append(m.writes, writeCall{req: req, outputPath: outputPath})
	return os.WriteFile(outputPath, []byte("ID3"), 0644)
}

// allReleased reports whether every opened media was closed exactly once
func (m *mockConverter) allReleased() bool {
	for _, media := range m.media {
		if media.closeCount != 1 {
			return false
		}
	}
	return true
}
