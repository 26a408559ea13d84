package types

import "time"

// Book is a parsed text source: the extracted plain text plus chapter
// bounds derived from it.
type Book struct {
	ID               string    `json:"id"`
	Owner            string    `json:"owner"`
	Title            string    `json:"title"`
	Author           string    `json:"author,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	PlainText        string    `json:"plain_text"`
	Chapters         []Chapter `json:"chapters"`
	// AnnotatedHTMLChapters holds one rendered HTML document per chapter,
	// inline assets resolved to data URLs, for display alongside playback.
	// Empty when the source format carries no markup worth preserving.
	AnnotatedHTMLChapters []string `json:"annotated_html_chapters,omitempty"`
	BlobPath              string   `json:"blob_path"`
	SHA256                string   `json:"sha256"`
	ByteSize              int64    `json:"byte_size"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// WordCount returns the total word count across all chapters.
func (b *Book) WordCount() int {
	total := 0
	for _, c := range b.Chapters {
		total += c.WordCount
	}
	return total
}
