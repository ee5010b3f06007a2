package main

import "github.com/bradsaid/pdf-merger/internal/view"

// ======================= CONFIG =======================

const (
	maxMultipartMemory = 32 << 20 // parts above this spill to temp files
	maxJSONBody        = 4 << 10
	previewRetryAfter  = "1" // seconds, sent with 202 while a preview renders
)

// ======================= DATA TYPES ===================

// StateResponse is the list as the page renders it.
type StateResponse struct {
	Rows     []view.Row `json:"rows"`
	Revision uint64     `json:"revision"`
	MaxFiles int        `json:"maxFiles"`
	Notice   string     `json:"notice,omitempty"`  // banner text
	Ignored  bool       `json:"ignored,omitempty"` // the request was a no-op
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ManifestEntry names one input file for -manifest.
type ManifestEntry struct {
	Path string `json:"path"`           // relative paths resolve against the manifest
	Name string `json:"name,omitempty"` // display name, default base of Path
	Type string `json:"type,omitempty"` // declared media type, default from extension
}

// position is either a non-negative integer or its decimal string; anything
// else is caught by the schema and ignored.
const positionSchema = `{"oneOf": [
	{"type": "integer", "minimum": 0},
	{"type": "string", "pattern": "^[0-9]+$"}
]}`

// RemoveRequest: {"index": n}
const removeRequestSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {"index": ` + positionSchema + `},
	"required": ["index"]
}`

// MoveRequest: {"from": a, "to": b}
const moveRequestSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {"from": ` + positionSchema + `, "to": ` + positionSchema + `},
	"required": ["from", "to"]
}`
