package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytsongs/internal/model"
)

// Timeout constants
const (
	DefaultResolveTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title fallback
const (
	UntitledPlaylistPrefix = "Playlist "
)

// ErrNotPlaylist is returned for URLs that do not reference a playlist.
var ErrNotPlaylist = errors.New("not a playlist URL")

// PlaylistResolver enumerates the member videos of a playlist URL.
type PlaylistResolver interface {
	Resolve(ctx context.Context, url string) (*model.Playlist, error)
}

// Service resolves playlists against YouTube's metadata endpoints.
type Service struct {
	client  youtube.Client
	timeout time.Duration
}

// NewService creates a new playlist resolver service.
func NewService() *Service {
	return &Service{timeout: DefaultResolveTimeout}
}

// SetTimeout sets the timeout for resolve operations.
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// Resolve fetches the playlist's title and ordered member videos. Entries
// the service reports as unavailable (private, deleted, region-blocked) are
// skipped silently and never reach the result. Any failure here is fatal
// for the run; there is no partial result.
func (s *Service) Resolve(ctx context.Context, url string) (*model.Playlist, error) {
	playlistID, err := ExtractPlaylistID(url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pl, err := s.client.GetPlaylistContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist %s: %w", playlistID, err)
	}

	videos := make([]model.VideoRef, 0, len(pl.Videos))
	for _, entry := range pl.Videos {
		// Unavailable entries come back nil or without a video ID.
		if entry == nil || entry.ID == "" {
			continue
		}
		videos = append(videos, model.VideoRef{
			URL:   fmt.Sprintf(YouTubeVideoURLTemplate, entry.ID),
			Title: entry.Title,
		})
	}

	title := pl.Title
	if title == "" {
		title = UntitledPlaylistPrefix + playlistID
	}

	return &model.Playlist{
		ID:     playlistID,
		Title:  title,
		Videos: videos,
	}, nil
}

// IsValidPlaylistURL checks if the URL references a YouTube playlist.
func IsValidPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistURLParam)
}

// ExtractPlaylistID extracts the playlist ID from various URL formats:
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&index=4
func ExtractPlaylistID(url string) (string, error) {
	if !IsValidPlaylistURL(url) {
		return "", fmt.Errorf("%w: %s", ErrNotPlaylist, url)
	}

	parts := strings.Split(url, PlaylistURLParam)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %s", ErrNotPlaylist, url)
	}

	playlistID := parts[1]
	if strings.Contains(playlistID, PlaylistParamSeparator) {
		playlistID = strings.Split(playlistID, PlaylistParamSeparator)[0]
	}

	if playlistID == "" {
		return "", fmt.Errorf("%w: empty playlist ID in %s", ErrNotPlaylist, url)
	}

	return playlistID, nil
}
