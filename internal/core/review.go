package core

import "fmt"

// SourceFile is a file discovered for review: its path and the text to submit.
type SourceFile struct {
	Path    string
	Content string
}

// FileReview is one unit of work flowing through a review run.
type FileReview struct {
	Name           string
	Content        string
	ExecutionID    string
	ConversationID string
	Review         string
}

// NewFileReviews builds one FileReview per source file, preserving order.
func NewFileReviews(files []SourceFile) []*FileReview {
	reviews := make([]*FileReview, 0, len(files))
	for _, f := range files {
		reviews = append(reviews, &FileReview{Name: f.Path, Content: f.Content})
	}
	return reviews
}

func (r *FileReview) String() string {
	return fmt.Sprintf("FileReview(name=%s execution_id=%s conversation_id=%s content=%s review=%s)",
		r.Name, r.ExecutionID, r.ConversationID, preview(r.Content), preview(r.Review))
}

func preview(s string) string {
	const n = 10
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
