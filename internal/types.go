package internal

import "time"

// Extraction records one candidate string found in a block of a source
// document.
type Extraction struct {
	ID         string    `json:"id"`
	SourceFile string    `json:"source_file"`
	BlockName  string    `json:"block_name"`
	SourceText string    `json:"source_text"`
	Timestamp  time.Time `json:"timestamp"`
}
