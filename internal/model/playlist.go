package model

// VideoRef is a resolved pointer to one video inside a playlist. Title may
// be empty when the listing did not include it; URL is the identity.
type VideoRef struct {
	URL   string
	Title string
}

// Playlist is the result of resolving a playlist URL: the display title and
// the ordered member videos. Entries the hosting service reports as
// unavailable never appear here.
type Playlist struct {
	ID     string
	Title  string
	Videos []VideoRef
}

// Total returns the number of resolvable videos in the playlist.
func (p *Playlist) Total() int {
	return len(p.Videos)
}
