package fetch

import (
	"context"
	"io"

	"github.com/kkdai/youtube/v2"
)

// StreamSource resolves video metadata and opens media streams. The
// production implementation is *youtube.Client; tests substitute stubs.
type StreamSource interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}
