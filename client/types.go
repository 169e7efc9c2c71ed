package client

// Entry is one playlist item as resolved by the extractor.
type Entry struct {
	Index int // 1-based position in the playlist
	ID    string
	URL   string
	Title string

	// Formats are the formats the format filter selected. A merged selection
	// lists one per merged stream.
	Formats []Format

	// Size is the summed size of Formats in bytes, nil when unknown.
	Size       *int64
	Inaccurate bool

	Duration *float64 // seconds
	Views    *int64
	Likes    *int64
	Dislikes *int64
}

// Format is one downloadable variant of a video.
type Format struct {
	ID             string
	Ext            string
	Filesize       *int64
	FilesizeApprox *float64
}

// LikesPercentage returns likes/(likes+dislikes) as a percentage. ok is false
// when either count is unknown or both are zero.
func (e *Entry) LikesPercentage() (pct float64, ok bool) {
	return LikesPercentage(e.Likes, e.Dislikes)
}

// LikesPercentage computes the like ratio from optional counts.
func LikesPercentage(likes, dislikes *int64) (float64, bool) {
	if likes == nil || dislikes == nil {
		return 0, false
	}
	total := *likes + *dislikes
	if total == 0 {
		return 0, false
	}
	return float64(*likes) / float64(total) * 100, true
}
