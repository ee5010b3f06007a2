// Package view projects the collection and its previews into list rows.
package view

import (
	"net/url"

	"github.com/mattn/go-runewidth"

	"github.com/bradsaid/pdf-merger/internal/collection"
	"github.com/bradsaid/pdf-merger/internal/preview"
)

// NameWidth is the display width, in terminal cells, of a row's name.
const NameWidth = 32

// Row is one list entry.
type Row struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Name     string `json:"name"`  // truncated for display
	Title    string `json:"title"` // full name
	Kind     string `json:"kind"`
	State    string `json:"state"`
	ThumbURL string `json:"thumbUrl"`
}

// PreviewLookup reports the preview state of a file ID.
type PreviewLookup func(id string) preview.State

// Project returns one Row per file, in order. It has no side effects.
func Project(files []collection.PendingFile, lookup PreviewLookup) []Row {
	rows := make([]Row, 0, len(files))
	for i, f := range files {
		state := preview.Pending
		if lookup != nil {
			state = lookup(f.ID)
		}
		rows = append(rows, Row{
			ID:       f.ID,
			Index:    i,
			Name:     runewidth.Truncate(f.Name, NameWidth, "…"),
			Title:    f.Name,
			Kind:     f.Type.String(),
			State:    state.String(),
			ThumbURL: ThumbURL(f),
		})
	}
	return rows
}

// ThumbURL is the preview route for f, versioned by content digest.
func ThumbURL(f collection.PendingFile) string {
	u := "/preview/" + url.PathEscape(f.ID)
	if f.Digest != "" {
		u += "?v=" + url.QueryEscape(shortDigest(f.Digest))
	}
	return u
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
