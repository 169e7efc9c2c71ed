package ytdlp

// Info is the subset of the yt-dlp info dict this tool reads. Playlists carry
// Entries; resolved videos carry the selected format fields inline and, for
// merged selections, RequestedFormats.
type Info struct {
	Type         string  `json:"_type"`
	IEKey        string  `json:"ie_key"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	WebpageURL   string  `json:"webpage_url"`
	OriginalURL  string  `json:"original_url"`
	ExtractorKey string  `json:"extractor_key"`
	Entries      []*Info `json:"entries"`

	Duration     *float64 `json:"duration"`
	ViewCount    *int64   `json:"view_count"`
	LikeCount    *int64   `json:"like_count"`
	DislikeCount *int64   `json:"dislike_count"`

	Format
	RequestedFormats []Format `json:"requested_formats"`
}

// Format is one downloadable variant.
type Format struct {
	FormatID        string            `json:"format_id"`
	Ext             string            `json:"ext"`
	Protocol        string            `json:"protocol"`
	Filesize        *int64            `json:"filesize"`
	FilesizeApprox  *float64          `json:"filesize_approx"`
	Fragments       []Fragment        `json:"fragments"`
	FragmentBaseURL string            `json:"fragment_base_url"`
	HTTPHeaders     map[string]string `json:"http_headers"`
}

// Fragment is one piece of a fragmented (DASH/HLS) format.
type Fragment struct {
	URL      string   `json:"url"`
	Path     string   `json:"path"`
	Filesize *int64   `json:"filesize"`
	Duration *float64 `json:"duration"`
}

// IsPlaylist reports whether the info describes a collection of entries.
func (i *Info) IsPlaylist() bool {
	return i.Type == "playlist" || i.Type == "multi_video" || i.Entries != nil
}

// IsReference reports whether the info only points at another URL that must
// be extracted again.
func (i *Info) IsReference() bool {
	return (i.Type == "url" || i.Type == "url_transparent") && i.URL != ""
}

// SelectedFormats returns the formats chosen by the format filter, or nil
// when the info carries no format at all.
func (i *Info) SelectedFormats() []Format {
	if len(i.RequestedFormats) > 0 {
		return i.RequestedFormats
	}
	if i.Format.empty() {
		return nil
	}
	return []Format{i.Format}
}

func (f Format) empty() bool {
	return f.FormatID == "" && f.Filesize == nil && f.FilesizeApprox == nil && len(f.Fragments) == 0
}

// EntryURL returns the address to resolve a flat playlist entry with.
func (i *Info) EntryURL() string {
	switch {
	case i.URL != "":
		return i.URL
	case i.WebpageURL != "":
		return i.WebpageURL
	default:
		return i.ID
	}
}
