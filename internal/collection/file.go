package collection

// MediaType classifies an accepted input.
type MediaType int

const (
	PDF MediaType = iota
	ImageJPEG
	ImagePNG
	ImageOther
)

func (t MediaType) String() string {
	switch t {
	case PDF:
		return "pdf"
	case ImageJPEG:
		return "jpeg"
	case ImagePNG:
		return "png"
	case ImageOther:
		return "image"
	default:
		return "unknown"
	}
}

// IsImage reports whether t is one of the image kinds.
func (t MediaType) IsImage() bool {
	return t == ImageJPEG || t == ImagePNG || t == ImageOther
}

// PendingFile is one accepted input awaiting preview and merge.
// Its position is its index in the Collection and is not stored.
type PendingFile struct {
	ID      string    // stable identity, previews and rows are keyed by it
	Name    string    // original file name, display only
	Type    MediaType
	Content []byte
	Digest  string // hex BLAKE2b-256 of Content
}

// Size returns the payload length in bytes.
func (f PendingFile) Size() int { return len(f.Content) }
