package resolve

// Package resolve turns a playlist URL into the ordered list of member
// videos plus the playlist display title, without downloading any media.
