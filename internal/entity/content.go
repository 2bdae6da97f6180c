package entity

// Logical field names the page analyzer is asked about. The extraction
// engine treats "categories" as multi-valued; everything else takes the
// first match.
const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldAuthor      = "author"
	FieldPublishDate = "publish_date"
	FieldLanguage    = "language"
	FieldCategories  = "categories"
)

// FieldNames is the fixed set of logical content fields.
var FieldNames = []string{
	FieldTitle,
	FieldContent,
	FieldAuthor,
	FieldPublishDate,
	FieldLanguage,
	FieldCategories,
}

// Media categories every recipe extracts.
const (
	MediaImages = "images"
	MediaVideos = "videos"
	MediaEmbeds = "embeds"
)

// MediaCategories lists the media keys in their canonical order.
var MediaCategories = []string{MediaImages, MediaVideos, MediaEmbeds}

// ScrapedContent is the structured result of applying a recipe to a page.
// Absent fields mean the rule matched nothing.
type ScrapedContent struct {
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Author      string              `json:"author,omitempty"`
	PublishDate string              `json:"publish_date,omitempty"`
	Language    string              `json:"language,omitempty"`
	Categories  []string            `json:"categories"`
	MediaFiles  map[string][]string `json:"media_files"`
}

// NewMediaFiles returns a media map with all three categories present and
// empty, preserving the invariant that the keys always exist.
func NewMediaFiles() map[string][]string {
	return map[string][]string{
		MediaImages: {},
		MediaVideos: {},
		MediaEmbeds: {},
	}
}
