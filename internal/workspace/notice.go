package workspace

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/bradsaid/pdf-merger/internal/intake"
	"github.com/bradsaid/pdf-merger/internal/merge"
)

// Banner texts.
const (
	NoticeNoValidFiles      = "Please upload valid PDF or image files."
	NoticeInsufficientFiles = "Please upload at least 2 PDF files."
	NoticeMergeFailed       = "Error merging PDFs. Try smaller files."
	NoticeMergeInProgress   = "A merge is already running."
)

// NoticeFor maps err to the banner shown to the user, or "" when err has
// no user-facing message.
func (w *Workspace) NoticeFor(err error) string {
	return Notice(err, w.MaxFiles())
}

// Notice is NoticeFor for a collection of the given capacity.
func Notice(err error, capacity int) string {
	var merr *merge.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, intake.ErrNoValidFiles):
		return NoticeNoValidFiles
	case errors.Is(err, intake.ErrCapacityExceeded):
		return fmt.Sprintf("Maximum %d files allowed.", capacity)
	case errors.Is(err, merge.ErrInsufficientFiles):
		return NoticeInsufficientFiles
	case errors.Is(err, merge.ErrMergeInProgress):
		return NoticeMergeInProgress
	case errors.As(err, &merr):
		return NoticeMergeFailed
	default:
		return ""
	}
}
