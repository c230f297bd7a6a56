package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytsongs/internal/model"
	"github.com/ytget/ytsongs/internal/platform"
)

type stubTranscoder struct {
	calls int32
	err   error
}

func (s *stubTranscoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("converted"), 0644)
}

// stubSource serves canned metadata and an in-memory stream.
type stubSource struct {
	video    *youtube.Video
	videoErr error
	payload  []byte
}

func (s *stubSource) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	if s.videoErr != nil {
		return nil, s.videoErr
	}
	return s.video, nil
}

func (s *stubSource) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	return io.NopCloser(bytes.NewReader(s.payload)), int64(len(s.payload)), nil
}

func audioTestVideo(title string) *youtube.Video {
	return &youtube.Video{
		ID:    "abc123",
		Title: title,
		Formats: youtube.FormatList{
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130_000},
		},
	}
}

func TestFetch_SkipsExistingTarget(t *testing.T) {
	dir := t.TempDir()
	tr := &stubTranscoder{}
	service := NewService(tr)

	video := model.VideoRef{
		URL:   "https://www.youtube.com/watch?v=abc",
		Title: "My Song",
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "My Song.mp3"), []byte("x"), 0644))

	outcome := service.Fetch(context.Background(), video, "mp3", dir)

	assert.Equal(t, model.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, "My Song", outcome.Title)
	assert.Zero(t, atomic.LoadInt32(&tr.calls), "skip must not invoke the transcoder")
}

func TestFetch_SkipChecksSanitizedName(t *testing.T) {
	dir := t.TempDir()
	service := NewService(&stubTranscoder{})

	video := model.VideoRef{
		URL:   "https://www.youtube.com/watch?v=abc",
		Title: `AC/DC: Live?`,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ACDC Live.wav"), []byte("x"), 0644))

	outcome := service.Fetch(context.Background(), video, "wav", dir)

	assert.Equal(t, model.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, `AC/DC: Live?`, outcome.Title, "outcome keeps the unsanitized display title")
}

func TestFetch_DownloadAndConvert(t *testing.T) {
	dir := t.TempDir()
	tr := &stubTranscoder{}
	service := NewService(tr)
	service.client = &stubSource{
		video:   audioTestVideo("My Song"),
		payload: bytes.Repeat([]byte("a"), 4096),
	}

	video := model.VideoRef{URL: "https://www.youtube.com/watch?v=abc123", Title: "My Song"}
	outcome := service.Fetch(context.Background(), video, "mp3", dir)

	assert.Equal(t, model.OutcomeDownloaded, outcome.Kind)
	assert.Equal(t, "My Song", outcome.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tr.calls))
	assert.FileExists(t, filepath.Join(dir, "My Song.mp3"))
	assertNoTempFiles(t, dir)
}

func TestFetch_NoTempFileAfterTranscodeFailure(t *testing.T) {
	dir := t.TempDir()
	service := NewService(&stubTranscoder{err: errors.New("ffmpeg failed: exit status 1")})
	service.client = &stubSource{
		video:   audioTestVideo("My Song"),
		payload: bytes.Repeat([]byte("a"), 4096),
	}

	video := model.VideoRef{URL: "https://www.youtube.com/watch?v=abc123", Title: "My Song"}
	outcome := service.Fetch(context.Background(), video, "mp3", dir)

	assert.Equal(t, model.OutcomeFailed, outcome.Kind)
	assert.NoFileExists(t, filepath.Join(dir, "My Song.mp3"))
	assertNoTempFiles(t, dir)
}

func TestFetch_ResolvesTitleWhenMissing(t *testing.T) {
	dir := t.TempDir()
	service := NewService(&stubTranscoder{})
	service.client = &stubSource{
		video:   audioTestVideo("Resolved Title"),
		payload: []byte("stream"),
	}

	video := model.VideoRef{URL: "https://www.youtube.com/watch?v=abc123"}
	outcome := service.Fetch(context.Background(), video, "mp3", dir)

	assert.Equal(t, model.OutcomeDownloaded, outcome.Kind)
	assert.Equal(t, "Resolved Title", outcome.Title)
	assert.FileExists(t, filepath.Join(dir, "Resolved Title.mp3"))
}

func TestFetch_ResolveFailure(t *testing.T) {
	service := NewService(&stubTranscoder{})
	service.client = &stubSource{videoErr: errors.New("video unavailable")}

	video := model.VideoRef{URL: "https://www.youtube.com/watch?v=abc123"}
	outcome := service.Fetch(context.Background(), video, "mp3", t.TempDir())

	assert.Equal(t, model.OutcomeFailed, outcome.Kind)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", outcome.URL)
}

// measuringTranscoder reports a fixed duration for every finished file.
type measuringTranscoder struct {
	stubTranscoder
	measured []string
}

func (m *measuringTranscoder) ProbeDuration(filePath string) (float64, error) {
	m.measured = append(m.measured, filePath)
	return 183.5, nil
}

func TestFetch_MeasuresDurationAfterConvert(t *testing.T) {
	dir := t.TempDir()
	tr := &measuringTranscoder{}
	service := NewService(tr)
	service.client = &stubSource{
		video:   audioTestVideo("My Song"),
		payload: []byte("stream"),
	}

	video := model.VideoRef{URL: "https://www.youtube.com/watch?v=abc123", Title: "My Song"}
	outcome := service.Fetch(context.Background(), video, "mp3", dir)

	require.Equal(t, model.OutcomeDownloaded, outcome.Kind)
	require.Len(t, tr.measured, 1)
	assert.Equal(t, filepath.Join(dir, "My Song.mp3"), tr.measured[0])
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, filepath.Ext(entry.Name()) == platform.TempFileSuffix,
			"temp file %s must not survive", entry.Name())
	}
}

func TestPickAudioFormat(t *testing.T) {
	formats := []youtube.Format{
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Bitrate: 2_000_000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130_000},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160_000},
		{ItagNo: 249, MimeType: `audio/webm; codecs="opus"`, Bitrate: 50_000},
	}

	best, err := pickAudioFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, 251, best.ItagNo, "highest-bitrate audio format wins")
}

func TestPickAudioFormat_AverageBitrateFallback(t *testing.T) {
	formats := []youtube.Format{
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AverageBitrate: 128_000},
		{ItagNo: 249, MimeType: `audio/webm; codecs="opus"`, AverageBitrate: 60_000},
	}

	best, err := pickAudioFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, 140, best.ItagNo)
}

func TestPickAudioFormat_NoAudio(t *testing.T) {
	formats := []youtube.Format{
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F"`, Bitrate: 2_000_000},
	}

	_, err := pickAudioFormat(formats)
	assert.Error(t, err)
}

func TestMimeToExt(t *testing.T) {
	tests := []struct {
		mime     string
		expected string
	}{
		{`audio/mp4; codecs="mp4a.40.2"`, ExtM4A},
		{`audio/webm; codecs="opus"`, ExtWebM},
		{"application/octet-stream", ExtM4A},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, mimeToExt(test.mime), "mimeToExt(%q)", test.mime)
	}
}

func TestCopyWithContext(t *testing.T) {
	src := bytes.NewBufferString("hello stream")
	var dst bytes.Buffer

	n, err := copyWithContext(context.Background(), &dst, src)
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello stream")), n)
	assert.Equal(t, "hello stream", dst.String())
}

func TestCopyWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := bytes.NewBufferString("data")
	var dst bytes.Buffer

	_, err := copyWithContext(ctx, &dst, src)
	assert.ErrorIs(t, err, context.Canceled)
}
