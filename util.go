package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// outputName keeps letters, digits, dash, underscore and dot, and ensures a
// single .pdf extension.
func outputName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSuffix(b.String(), ".pdf")
	out = strings.TrimSuffix(out, ".PDF")
	out = strings.Trim(out, ".")
	if out == "" {
		out = "merged"
	}
	return out + ".pdf"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeValidated reads a small JSON body and checks it against schema.
// Numbers are kept as json.Number.
func decodeValidated(r io.Reader, schema *jsonschema.Schema) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode body")
	}
	if err := schema.Validate(v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("body is not an object")
	}
	return m, nil
}

// position renders a validated position value as the decimal string the
// workspace parses.
func position(v any) string {
	switch p := v.(type) {
	case json.Number:
		return p.String()
	case string:
		return p
	default:
		return ""
	}
}
