package bible

// VersionLanguage names the language a Bible edition is published in.
type VersionLanguage struct {
	Name      string `json:"name"`
	LocalName string `json:"local_name"`
}

// ApiVersion is one entry of the upstream version list.
type ApiVersion struct {
	ID                int             `json:"id"`
	Abbreviation      string          `json:"abbreviation"`
	LocalAbbreviation string          `json:"local_abbreviation"`
	Title             string          `json:"title"`
	LocalTitle        string          `json:"local_title"`
	Language          VersionLanguage `json:"language"`
}

// ChapterInfo identifies one chapter inside a book's table of contents.
type ChapterInfo struct {
	TOC       bool   `json:"toc"`
	USFM      string `json:"usfm"`
	Human     string `json:"human"`
	Canonical bool   `json:"canonical"`
}

// BookInfo describes one book of a Bible edition.
type BookInfo struct {
	Text         bool        `json:"text"`
	USFM         string      `json:"usfm"`
	Audio        bool        `json:"audio"`
	Canon        string      `json:"canon"`
	Human        string      `json:"human"`
	HumanLong    string      `json:"human_long,omitempty"`
	Abbreviation string      `json:"abbreviation,omitempty"`
	FirstChapter ChapterInfo `json:"first_chapter"`
	LastChapter  ChapterInfo `json:"last_chapter"`
}

// VersionDetail is the full description of one Bible edition, including its
// book list for the navigator.
type VersionDetail struct {
	ID                int        `json:"id"`
	Abbreviation      string     `json:"abbreviation"`
	LocalAbbreviation string     `json:"local_abbreviation"`
	Title             string     `json:"title"`
	LocalTitle        string     `json:"local_title"`
	Language          string     `json:"language,omitempty"`
	Direction         string     `json:"direction,omitempty"`
	Books             []BookInfo `json:"books"`
}

// ContentItem is one renderable unit of chapter text. The set of shapes is
// closed: a verse carries number/usfm/text, a heading or reference carries
// text only, anything else falls back to rendering its text if present.
type ContentItem struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Number *int          `json:"number,omitempty"`
	USFM   string        `json:"usfm,omitempty"`
	Notes  []interface{} `json:"notes,omitempty"`
}

// IsVerse reports whether the item renders as a numbered verse.
func (i ContentItem) IsVerse() bool {
	return i.Number != nil && i.USFM != "" && i.Text != ""
}

// ChapterLink points at an adjacent chapter for prev/next navigation.
type ChapterLink struct {
	Canonical bool     `json:"canonical"`
	USFM      []string `json:"usfm"`
	Human     string   `json:"human"`
	TOC       bool     `json:"toc"`
	VersionID int      `json:"version_id"`
}

// ChapterContent is the normalized chapter payload.
type ChapterContent struct {
	Title           string        `json:"title"`
	USFM            string        `json:"usfm"`
	Locale          string        `json:"locale"`
	Content         []ContentItem `json:"content"`
	Copyright       string        `json:"copyright,omitempty"`
	NextChapter     *ChapterLink  `json:"next_chapter"`
	PreviousChapter *ChapterLink  `json:"previous_chapter"`
}

// allVersionsEnvelope is the nested wrapper around the version list.
type allVersionsEnvelope struct {
	Response struct {
		Data struct {
			Versions []ApiVersion `json:"versions"`
		} `json:"data"`
	} `json:"response"`
}

// dataEnvelope wraps payloads under a top-level data key.
type dataEnvelope[T any] struct {
	Data *T `json:"data"`
}
