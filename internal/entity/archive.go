package entity

import "time"

// ArchivedContent mirrors the `scraped_content` PostgreSQL table: the last
// successfully scraped content per URL, kept for direct lookup after the
// task record itself has been swept.
type ArchivedContent struct {
	ID        int64
	TaskID    string
	URL       string
	Content   ScrapedContent // stored as JSONB
	ScrapedAt time.Time
}
