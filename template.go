package main

import (
	"html/template"

	"github.com/bradsaid/pdf-merger/internal/preview"
	"github.com/bradsaid/pdf-merger/internal/view"
)

// pageData feeds the index template.
type pageData struct {
	Rows          []view.Row
	Revision      uint64
	MaxFiles      int
	BannerDelayMs int64
	OutputName    string
}

var funcMap = template.FuncMap{
	"pending": func(state string) bool { return state == preview.Pending.String() },
	"inc":     func(i int) int { return i + 1 },
}

var page = template.Must(template.New("index").Funcs(funcMap).Parse(`
<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>PDF Merger</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    :root { --border:#eee; --muted:#666; }
    * { box-sizing:border-box; }
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; }
    h1 { margin-top: 0; font-size: 22px; }
    .drop { border:2px dashed #ccc; border-radius:10px; padding:28px; text-align:center; color:var(--muted); cursor:pointer; }
    .drop.over { border-color:#111; color:#111; background:#fafafa; }
    table { width:100%; border-collapse:collapse; margin-top:16px; }
    th, td { padding:8px 10px; border-bottom:1px solid var(--border); vertical-align:middle; }
    tr.fileRow { cursor:grab; }
    tr.fileRow.dragging { opacity:.4; }
    tr.fileRow.target { outline:2px solid #111; }
    .thumb { width:100px; height:130px; display:flex; align-items:center; justify-content:center; background:#f6f6f6; border-radius:6px; overflow:hidden; }
    .thumb img { max-width:100px; max-height:130px; }
    .muted { color:var(--muted); font-size:12px; }
    .badge { background:#f2f2f2; border:1px solid #e6e6e6; border-radius:999px; padding:2px 8px; font-size:11px; color:#444; }
    .btn { padding:10px 14px; border:0; background:#111; color:#fff; border-radius:8px; cursor:pointer; }
    .btn:disabled { opacity:.5; cursor:not-allowed; }
    .btn.small { padding:4px 10px; font-size:12px; background:#c00; }
    .banner { position:fixed; top:16px; right:16px; max-width:360px; padding:12px 16px; border-radius:8px; background:#c00; color:#fff; display:none; }
    .toolbar { display:flex; gap:10px; align-items:center; margin-top:16px; }
  </style>
</head>
<body>
  <h1>PDF Merger</h1>
  <div id="banner" class="banner" role="alert"></div>

  <div id="drop" class="drop">
    Drop PDF or image files here, or click to choose
    <input id="picker" type="file" multiple accept="application/pdf,image/*" hidden>
  </div>

  <div class="toolbar">
    <button id="mergeBtn" class="btn">Merge PDFs</button>
    <span class="badge" id="countBadge">{{len .Rows}} / {{.MaxFiles}}</span>
    <span class="muted">Drag rows to reorder.</span>
  </div>

  <table id="tbl" data-revision="{{.Revision}}">
    <thead>
      <tr><th style="width:40px;">#</th><th style="width:120px;">Preview</th><th>File</th><th style="width:80px;"></th></tr>
    </thead>
    <tbody id="tbody">
      {{range .Rows}}
      <tr class="fileRow" draggable="true" data-id="{{.ID}}" data-index="{{.Index}}" data-state="{{.State}}">
        <td class="pos">{{inc .Index}}</td>
        <td><div class="thumb">{{if pending .State}}<span class="muted">Loading…</span>{{else}}<img src="{{.ThumbURL}}" alt="{{.Title}}">{{end}}</div></td>
        <td><div class="name" title="{{.Title}}"><strong>{{.Name}}</strong></div><div class="muted">{{.Kind}}</div></td>
        <td><button type="button" class="btn small removeBtn">Remove</button></td>
      </tr>
      {{end}}
    </tbody>
  </table>

<script>
  const BANNER_DELAY = {{.BannerDelayMs}};
  const OUTPUT_NAME = {{.OutputName}};
  const tbody = document.getElementById('tbody');
  const badge = document.getElementById('countBadge');
  const banner = document.getElementById('banner');
  const drop = document.getElementById('drop');
  const picker = document.getElementById('picker');
  let maxFiles = {{.MaxFiles}};
  let bannerTimer = null;
  let pollTimer = null;

  function showBanner(msg) {
    if (!msg) return;
    banner.textContent = msg;
    banner.style.display = 'block';
    clearTimeout(bannerTimer);
    bannerTimer = setTimeout(() => { banner.style.display = 'none'; }, BANNER_DELAY);
  }

  function cell(child) {
    const td = document.createElement('td');
    if (child) td.appendChild(child);
    return td;
  }

  function rowEl(r) {
    const tr = document.createElement('tr');
    tr.className = 'fileRow';
    tr.draggable = true;
    tr.dataset.id = r.id;
    tr.dataset.index = r.index;
    tr.dataset.state = r.state;

    const pos = cell(document.createTextNode(String(r.index + 1)));
    pos.className = 'pos';

    const thumb = document.createElement('div');
    thumb.className = 'thumb';
    if (r.state === 'pending') {
      const s = document.createElement('span');
      s.className = 'muted';
      s.textContent = 'Loading…';
      thumb.appendChild(s);
    } else {
      const img = document.createElement('img');
      img.src = r.thumbUrl;
      img.alt = r.title;
      thumb.appendChild(img);
    }

    const info = document.createElement('div');
    const name = document.createElement('div');
    name.className = 'name';
    name.title = r.title;
    const strong = document.createElement('strong');
    strong.textContent = r.name;
    name.appendChild(strong);
    const kind = document.createElement('div');
    kind.className = 'muted';
    kind.textContent = r.kind;
    info.appendChild(name);
    info.appendChild(kind);

    const rm = document.createElement('button');
    rm.type = 'button';
    rm.className = 'btn small removeBtn';
    rm.textContent = 'Remove';

    tr.appendChild(pos);
    tr.appendChild(cell(thumb));
    tr.appendChild(cell(info));
    tr.appendChild(cell(rm));
    return tr;
  }

  function render(state) {
    maxFiles = state.maxFiles;
    tbody.replaceChildren(...state.rows.map(rowEl));
    badge.textContent = state.rows.length + ' / ' + maxFiles;
    showBanner(state.notice);
    clearTimeout(pollTimer);
    if (state.rows.some(r => r.state === 'pending')) {
      pollTimer = setTimeout(refresh, 500);
    }
  }

  async function refresh() {
    const resp = await fetch('/api/state');
    if (resp.ok) render(await resp.json());
  }

  async function post(url, body) {
    const resp = await fetch(url, {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(body)
    });
    const data = await resp.json();
    if (!resp.ok) { showBanner(data.error); return; }
    render(data);
  }

  async function upload(files) {
    if (!files || files.length === 0) return;
    const fd = new FormData();
    for (const f of files) fd.append('files', f, f.name);
    const resp = await fetch('/api/files', { method: 'POST', body: fd });
    const data = await resp.json();
    if (!resp.ok) { showBanner(data.error); return; }
    render(data);
  }

  drop.addEventListener('click', (e) => { if (e.target !== picker) picker.click(); });
  picker.addEventListener('change', async () => {
    await upload(picker.files);
    picker.value = '';
  });
  drop.addEventListener('dragover', (e) => { e.preventDefault(); drop.classList.add('over'); });
  drop.addEventListener('dragleave', () => drop.classList.remove('over'));
  drop.addEventListener('drop', (e) => {
    e.preventDefault();
    drop.classList.remove('over');
    upload(e.dataTransfer.files);
  });

  tbody.addEventListener('click', (e) => {
    const row = e.target.closest('tr.fileRow');
    if (!row || !e.target.classList.contains('removeBtn')) return;
    post('/api/files/remove', { index: Number(row.dataset.index) });
  });

  // The drag payload is forwarded as-is; the server ignores anything that is
  // not a valid position.
  tbody.addEventListener('dragstart', (e) => {
    const row = e.target.closest('tr.fileRow');
    if (!row) return;
    row.classList.add('dragging');
    e.dataTransfer.setData('text/plain', row.dataset.index);
    e.dataTransfer.effectAllowed = 'move';
  });
  tbody.addEventListener('dragend', (e) => {
    const row = e.target.closest('tr.fileRow');
    if (row) row.classList.remove('dragging');
  });
  tbody.addEventListener('dragover', (e) => {
    const row = e.target.closest('tr.fileRow');
    if (!row) return;
    e.preventDefault();
    tbody.querySelectorAll('.target').forEach(el => el.classList.remove('target'));
    row.classList.add('target');
  });
  tbody.addEventListener('drop', (e) => {
    const row = e.target.closest('tr.fileRow');
    if (!row) return;
    e.preventDefault();
    e.stopPropagation();
    row.classList.remove('target');
    if (e.dataTransfer.files && e.dataTransfer.files.length > 0) {
      upload(e.dataTransfer.files);
      return;
    }
    post('/api/files/move', { from: e.dataTransfer.getData('text/plain'), to: Number(row.dataset.index) });
  });

  document.getElementById('mergeBtn').addEventListener('click', async () => {
    const btn = document.getElementById('mergeBtn');
    btn.disabled = true;
    let url = null;
    try {
      const resp = await fetch('/api/merge', { method: 'POST' });
      if (!resp.ok) {
        const data = await resp.json();
        showBanner(data.error);
        return;
      }
      const blob = await resp.blob();
      url = URL.createObjectURL(blob);
      const a = document.createElement('a');
      a.href = url;
      a.download = OUTPUT_NAME;
      document.body.appendChild(a);
      a.click();
      a.remove();
    } catch (e) {
      showBanner(String(e));
    } finally {
      if (url) URL.revokeObjectURL(url);
      btn.disabled = false;
    }
  });

  if (tbody.querySelector('tr[data-state="pending"]')) {
    pollTimer = setTimeout(refresh, 500);
  }
</script>
</body>
</html>
`))
