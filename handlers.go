package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/bradsaid/pdf-merger/internal/config"
	"github.com/bradsaid/pdf-merger/internal/download"
	"github.com/bradsaid/pdf-merger/internal/intake"
	"github.com/bradsaid/pdf-merger/internal/merge"
	"github.com/bradsaid/pdf-merger/internal/preview"
	"github.com/bradsaid/pdf-merger/internal/workspace"
)

var (
	removeSchema = jsonschema.MustCompileString("remove.json", removeRequestSchema)
	moveSchema   = jsonschema.MustCompileString("move.json", moveRequestSchema)
)

func newRouter(ws *workspace.Workspace, cfg config.Config, log *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleIndex(ws, cfg, log))
	mux.HandleFunc("GET /api/state", handleState(ws))
	mux.HandleFunc("POST /api/files", handleUpload(ws, cfg.MaxUploadBytes(), log))
	mux.HandleFunc("POST /api/files/remove", handleRemove(ws, log))
	mux.HandleFunc("POST /api/files/move", handleMove(ws, log))
	mux.HandleFunc("GET /preview/{id}", handlePreview(ws))
	mux.HandleFunc("POST /api/merge", handleMerge(ws, cfg.Merge.OutputName, log))
	return mux
}

func state(ws *workspace.Workspace) StateResponse {
	return StateResponse{Rows: ws.Rows(), Revision: ws.Revision(), MaxFiles: ws.MaxFiles()}
}

func handleIndex(ws *workspace.Workspace, cfg config.Config, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Rows:          ws.Rows(),
			Revision:      ws.Revision(),
			MaxFiles:      ws.MaxFiles(),
			BannerDelayMs: cfg.BannerDelay.Milliseconds(),
			OutputName:    cfg.Merge.OutputName,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, data); err != nil {
			log.Errorw("[http] render index", "error", err)
		}
	}
}

func handleState(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, state(ws))
	}
}

func handleUpload(ws *workspace.Workspace, maxBytes int64, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}
		defer r.MultipartForm.RemoveAll()

		var raw []intake.RawFile
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				log.Warnw("[files] open part", "name", fh.Filename, "error", err)
				continue
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Warnw("[files] read part", "name", fh.Filename, "error", err)
				continue
			}
			raw = append(raw, intake.RawFile{
				DeclaredType: fh.Header.Get("Content-Type"),
				Name:         fh.Filename,
				Content:      content,
			})
		}

		_, err := ws.Add(r.Context(), raw)
		resp := state(ws)
		resp.Notice = ws.NoticeFor(err)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleRemove(ws *workspace.Workspace, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeValidated(http.MaxBytesReader(w, r.Body, maxJSONBody), removeSchema)
		if err != nil {
			log.Warnw("[files] remove payload rejected", "error", err)
			resp := state(ws)
			resp.Ignored = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
		ok := ws.Remove(position(in["index"]))
		resp := state(ws)
		resp.Ignored = !ok
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleMove(ws *workspace.Workspace, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeValidated(http.MaxBytesReader(w, r.Body, maxJSONBody), moveSchema)
		if err != nil {
			log.Warnw("[files] move payload rejected", "error", err)
			resp := state(ws)
			resp.Ignored = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
		ok := ws.Move(position(in["from"]), position(in["to"]))
		resp := state(ws)
		resp.Ignored = !ok
		writeJSON(w, http.StatusOK, resp)
	}
}

func handlePreview(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ws.Preview(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "no such file")
			return
		}
		switch p.State {
		case preview.Pending:
			w.Header().Set("Retry-After", previewRetryAfter)
			writeJSON(w, http.StatusAccepted, map[string]string{"state": p.State.String()})
		case preview.Failed:
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write(ws.Placeholder())
		default:
			etag := strconv.Quote(p.Digest)
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", "private, max-age=3600")
			if r.Header.Get("If-None-Match") == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(p.PNG)
		}
	}
}

func handleMerge(ws *workspace.Workspace, name string, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := ws.Merge(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, merge.ErrInsufficientFiles):
				status = http.StatusBadRequest
			case errors.Is(err, merge.ErrMergeInProgress):
				status = http.StatusConflict
			}
			notice := ws.NoticeFor(err)
			if notice == "" {
				notice = workspace.NoticeMergeFailed
			}
			writeError(w, status, notice)
			return
		}
		log.Infow("[merge] download", "bytes", len(out), "name", name)
		download.Serve(w, r, out, name)
	}
}
