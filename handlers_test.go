package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bradsaid/pdf-merger/internal/config"
	"github.com/bradsaid/pdf-merger/internal/intake"
	"github.com/bradsaid/pdf-merger/internal/workspace"
)

type fixture struct {
	ws  *workspace.Workspace
	srv *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	log := zap.NewNop().Sugar()
	ws := newWorkspace(cfg, log)
	srv := httptest.NewServer(newRouter(ws, cfg, log))
	t.Cleanup(func() {
		srv.Close()
		ws.WaitPreviews()
	})
	return &fixture{ws: ws, srv: srv}
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{0, 0x80, 0, 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (f *fixture) add(t *testing.T, names ...string) {
	t.Helper()
	var raw []intake.RawFile
	for _, n := range names {
		raw = append(raw, intake.RawFile{DeclaredType: "image/png", Name: n, Content: pngData(t, 40, 30)})
	}
	_, err := f.ws.Add(context.Background(), raw)
	require.NoError(t, err)
	f.ws.WaitPreviews()
}

func (f *fixture) postJSON(t *testing.T, path, body string) StateResponse {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func titles(st StateResponse) []string {
	out := []string{}
	for _, r := range st.Rows {
		out = append(out, r.Title)
	}
	return out
}

type part struct {
	name, contentType string
	data              []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, p.name))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestIndexRendersRowsInOrder(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("very-long-file-name-", 3) + ".png"
	f.add(t, "first.png", long, "third.png")

	resp, err := http.Get(f.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	rows := doc.Find("tr.fileRow")
	require.Equal(t, 3, rows.Length())

	var got []string
	rows.Each(func(i int, s *goquery.Selection) {
		idx, _ := s.Attr("data-index")
		assert.Equal(t, fmt.Sprint(i), idx)
		title, _ := s.Find(".name").Attr("title")
		got = append(got, title)
		src, ok := s.Find(".thumb img").Attr("src")
		assert.True(t, ok)
		assert.True(t, strings.HasPrefix(src, "/preview/"))
	})
	assert.Equal(t, []string{"first.png", long, "third.png"}, got)
	assert.NotEqual(t, long, strings.TrimSpace(rows.Eq(1).Find(".name strong").Text()), "long names are truncated")
	assert.Equal(t, "3 / 20", doc.Find("#countBadge").Text())
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t,
		part{"a.png", "image/png", pngData(t, 10, 10)},
		part{"notes.txt", "text/plain", []byte("hello")},
		part{"b.png", "image/png", pngData(t, 10, 10)},
	)
	resp, err := http.Post(f.srv.URL+"/api/files", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, []string{"a.png", "b.png"}, titles(st))
	assert.Empty(t, st.Notice)
	assert.Equal(t, 20, st.MaxFiles)

	body, ct = multipartBody(t, part{"notes.txt", "text/plain", []byte("hello")})
	resp2, err := http.Post(f.srv.URL+"/api/files", ct, body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var st2 StateResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&st2))
	assert.Equal(t, "Please upload valid PDF or image files.", st2.Notice)
	assert.Len(t, st2.Rows, 2)
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.srv.URL+"/api/files", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveIgnoresMalformedPayloads(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", "b", "c")

	for _, body := range []string{
		`{"index": -1}`,
		`{"index": 1.5}`,
		`{"index": "x"}`,
		`{"index": 3}`,
		`{"index": null}`,
		`{}`,
		`[1]`,
		`not json`,
	} {
		st := f.postJSON(t, "/api/files/remove", body)
		assert.True(t, st.Ignored, body)
		assert.Equal(t, []string{"a", "b", "c"}, titles(st), body)
	}

	st := f.postJSON(t, "/api/files/remove", `{"index": 1}`)
	assert.False(t, st.Ignored)
	assert.Equal(t, []string{"a", "c"}, titles(st))
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", "b", "c")

	st := f.postJSON(t, "/api/files/move", `{"from": "2", "to": 0}`)
	assert.False(t, st.Ignored)
	assert.Equal(t, []string{"c", "a", "b"}, titles(st))

	for _, body := range []string{
		`{"from": "", "to": 0}`,
		`{"from": "1e0", "to": 0}`,
		`{"from": 0, "to": 7}`,
		`{"from": 0}`,
		`{"from": true, "to": 1}`,
	} {
		st := f.postJSON(t, "/api/files/move", body)
		assert.True(t, st.Ignored, body)
		assert.Equal(t, []string{"c", "a", "b"}, titles(st), body)
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	f.add(t, "ok.png")
	_, err := f.ws.Add(context.Background(), []intake.RawFile{{DeclaredType: "image/jpeg", Name: "bad.jpg", Content: []byte("junk")}})
	require.NoError(t, err)
	f.ws.WaitPreviews()
	rows := f.ws.Rows()
	require.Len(t, rows, 2)

	resp, err := http.Get(f.srv.URL + rows[0].ThumbURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+rows[0].ThumbURL, nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + rows[1].ThumbURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 130), img.Bounds(), "placeholder for failed preview")

	resp, err = http.Get(f.srv.URL + "/preview/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMergeEndpoint(t *testing.T) {
	f := newFixture(t)
	f.add(t, "only.png")

	resp, err := http.Post(f.srv.URL+"/api/merge", "", nil)
	require.NoError(t, err)
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please upload at least 2 PDF files.", e.Error)

	f.add(t, "second.png")
	resp, err = http.Post(f.srv.URL+"/api/merge", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="merged.pdf"`, resp.Header.Get("Content-Disposition"))

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	n, err := pdfapi.PageCount(bytes.NewReader(out.Bytes()), model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a")
	resp, err := http.Get(f.srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, []string{"a"}, titles(st))
	assert.Equal(t, "ready", st.Rows[0].State)
	assert.NotZero(t, st.Revision)
}
