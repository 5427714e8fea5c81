package console

import "html/template"

const styles = `<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#0a0a0f;--surface:#12121a;--surface2:#1a1a26;--border:#2a2a3a;
  --text:#e0e0ee;--text2:#8888aa;--text3:#555570;
  --accent:#0ea5e9;--accent-light:#38bdf8;--accent-dim:#0284c7;
  --danger:#ef4444;--success:#22c55e;--warn:#f59e0b;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh}

nav{background:var(--surface);border-bottom:1px solid var(--border);padding:0 24px;display:flex;align-items:center;height:52px;position:sticky;top:0;z-index:100}
nav .logo{font-family:var(--mono);font-size:1.1rem;font-weight:700;margin-right:32px;text-decoration:none;color:var(--text)}
nav .logo span{color:var(--accent-light)}
nav a.nav-link{color:var(--text2);text-decoration:none;font-size:0.82rem;padding:16px 12px;border-bottom:2px solid transparent}
nav a.nav-link:hover{color:var(--text)}
nav a.nav-link.active{color:var(--accent-light);border-bottom-color:var(--accent-light)}
nav .spacer{flex:1}
nav .user{color:var(--text3);font-size:0.75rem;font-family:var(--mono);margin-right:12px}

main{max-width:1100px;margin:0 auto;padding:32px 24px}
h1{font-size:1.4rem;font-weight:600;margin-bottom:20px}

.stats{display:grid;grid-template-columns:repeat(3,1fr);gap:16px;margin-bottom:32px}
.stat{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:20px}
.stat .label{color:var(--text3);font-size:0.72rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:6px}
.stat .value{font-family:var(--mono);font-size:1.8rem;font-weight:700}

.card{background:var(--surface);border:1px solid var(--border);border-radius:10px;padding:20px;margin-bottom:20px}
.card h2{font-size:0.95rem;font-weight:600;margin-bottom:16px;display:flex;align-items:center;gap:8px}
.card h2 .spacer{flex:1}

table{width:100%;border-collapse:collapse;font-size:0.82rem}
th{text-align:left;color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;padding:8px 12px;border-bottom:1px solid var(--border)}
td{padding:10px 12px;border-bottom:1px solid var(--border);color:var(--text2);font-family:var(--mono);font-size:0.78rem}
tr:hover td{background:var(--surface2)}
td.message{text-align:center;color:var(--text3)}
td.message.failed{color:var(--danger)}

.badge{padding:3px 8px;border-radius:4px;font-size:0.7rem;font-weight:600}
.badge-critical,.badge-danger{background:#ef444420;color:var(--danger)}
.badge-warning{background:#f59e0b20;color:var(--warn)}
.badge-info{background:#0ea5e920;color:var(--accent-light)}
.badge-success{background:#22c55e20;color:var(--success)}

.flash{padding:10px 14px;border-radius:6px;margin-bottom:16px;font-size:0.82rem;background:#22c55e20;color:var(--success)}
.flash.error{background:#ef444420;color:var(--danger)}

.btn{display:inline-block;padding:6px 12px;background:var(--accent);color:#fff;border:none;border-radius:6px;font-size:0.75rem;font-weight:600;cursor:pointer}
.btn:hover{background:var(--accent-dim)}
.btn-danger{background:var(--danger)}
.btn-ghost{background:var(--surface2);color:var(--text2);border:1px solid var(--border)}
form.inline{display:inline}

.form-row{display:flex;gap:12px;align-items:flex-end;flex-wrap:wrap}
.form-group label{display:block;color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:4px}
.form-group input,.form-group select{padding:8px 12px;background:var(--bg);border:1px solid var(--border);border-radius:6px;color:var(--text);font-family:var(--mono);font-size:0.82rem}

.panel-overlay{position:fixed;inset:0;background:rgba(0,0,0,0.4);z-index:199;display:none}
.panel-overlay.open{display:block}
.panel{position:fixed;top:0;right:0;width:440px;max-width:90vw;height:100%;background:var(--surface);border-left:1px solid var(--border);z-index:200;transform:translateX(100%);transition:transform 0.3s ease;overflow-y:auto}
.panel.open{transform:translateX(0)}
.panel-header{display:flex;align-items:center;justify-content:space-between;padding:20px 24px;border-bottom:1px solid var(--border)}
.panel-close{background:none;border:none;color:var(--text3);font-size:1.2rem;cursor:pointer}
.panel-body{padding:24px}
.field{margin-bottom:16px}
.field-label{color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;margin-bottom:4px}
.field-value{font-family:var(--mono);font-size:0.82rem;color:var(--text);word-break:break-word}

.login-card{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:48px 40px;max-width:400px;width:100%;text-align:center;margin:12vh auto 0}
.login-card input{width:100%;padding:12px 14px;margin-bottom:12px;background:var(--bg);border:1px solid var(--border);border-radius:8px;color:var(--text);font-size:0.95rem}
.login-card button{width:100%;padding:12px;background:var(--accent);color:#fff;border:none;border-radius:8px;font-weight:600;cursor:pointer}
.login-card .error{color:var(--danger);font-size:0.82rem;margin-top:12px}
.login-card .notice{color:var(--success);font-size:0.82rem;margin-bottom:12px}
.logo{font-family:var(--mono);font-size:1.5rem;font-weight:700;margin-bottom:24px}
.logo span{color:var(--accent-light)}
</style>`

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>trafficmon | {{.T.Get "title.login"}}</title>
` + styles + `
</head>
<body>
<div class="login-card">
  <div class="logo">traffic<span>mon</span></div>
  {{if .Flash}}<p class="notice">{{.Flash}}</p>{{end}}
  <form method="POST" action="/console/login" autocomplete="off">
    <input type="text" name="username" value="{{.Username}}" placeholder="username" autofocus required>
    <input type="password" name="password" placeholder="password" required>
    <button type="submit">{{.T.Get "title.login"}}</button>
  </form>
  {{if .Error}}<p class="error" id="login-error">{{.Error}}</p>{{end}}
</div>
</body>
</html>`))

const layoutHead = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>trafficmon | {{.Page}}</title>
<script src="https://unpkg.com/htmx.org@2.0.4" integrity="sha384-HGfztofotfshcF7+8n44JQL2oJmowVChPTg48S+jvZoztPfvwD79OC/LTtG6dMp+" crossorigin="anonymous"></script>
` + styles + `
</head>
<body>
<nav>
  <a href="/console" class="logo">traffic<span>mon</span></a>
  {{range .Nav}}<a href="{{.Href}}" class="nav-link{{if .Active}} active{{end}}" data-page="{{.Page}}">{{.Label}}</a>
  {{end}}
  <div class="spacer"></div>
  <span class="user">{{.Username}}</span>
  <form method="POST" action="/console/logout" class="inline"><button class="btn btn-ghost" type="submit">{{.T.Get "nav.logout"}}</button></form>
</nav>
<main>
{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}
{{if .Error}}<div class="flash error">{{.Error}}</div>{{end}}
`

const layoutFoot = `</main>

<div class="panel-overlay" id="panel-overlay" onclick="closePanel()"></div>
<div class="panel" id="detail-panel">
  <div id="panel-content"></div>
</div>

<script>
function closePanel() {
  document.getElementById('detail-panel').classList.remove('open');
  document.getElementById('panel-overlay').classList.remove('open');
}
document.addEventListener('keydown', function(e) {
  if (e.key === 'Escape') closePanel();
});
document.body.addEventListener('htmx:afterSwap', function(e) {
  if (e.detail.target.id === 'panel-content') {
    document.getElementById('detail-panel').classList.add('open');
    document.getElementById('panel-overlay').classList.add('open');
  }
});
</script>
</body>
</html>`

const pageBody = `
{{if eq .Page "main"}}
<h1>{{.T.Get "nav.main"}}</h1>
<div class="stats">
  <div class="stat"><div class="label">{{.T.Get "card.active_incidents"}}</div><div class="value" id="activeIncidents">{{.Screen.Main.Cards.ActiveIncidents}}</div></div>
  <div class="stat"><div class="label">{{.T.Get "card.critical_events"}}</div><div class="value" id="criticalEvents">{{.Screen.Main.Cards.CriticalEvents}}</div></div>
  <div class="stat"><div class="label">{{.T.Get "card.network_load"}}</div><div class="value" id="networkLoad">{{.Screen.Main.Cards.NetworkLoad}}</div></div>
</div>
<div class="card">
  <h2>{{.T.Get "table.top_traffic"}}<span class="spacer"></span>
    <button class="btn btn-ghost" hx-get="/console/api/main" hx-target="#main-body" hx-swap="outerHTML">{{.T.Get "action.refresh"}}</button></h2>
  <table id="topTrafficTable"><thead><tr><th>Src IP</th><th>Dst IP</th><th>MB</th></tr></thead>
  {{template "main-body" .}}
  </table>
</div>

{{else if eq .Page "incidents"}}
<h1>{{.T.Get "nav.incidents"}}</h1>
<div class="card">
  <h2><span class="spacer"></span>
    <button class="btn btn-ghost" hx-get="/console/api/incidents" hx-target="#incidents-body" hx-swap="outerHTML">{{.T.Get "action.refresh"}}</button></h2>
  <table id="incidentsTable"><thead><tr><th>ID</th><th>Type</th><th>Severity</th><th>Src IP</th><th>Dst IP</th><th>Status</th><th>Time</th><th></th></tr></thead>
  {{template "incidents-body" .}}
  </table>
</div>

{{else if eq .Page "rules"}}
<h1>{{.T.Get "nav.rules"}}</h1>
<div class="card">
  <h2>{{.T.Get "action.create_rule"}}</h2>
  <form method="POST" action="/console/rules" class="form-row">
    <div class="form-group"><label>Name</label><input name="name" required></div>
    <div class="form-group"><label>Category</label><input name="category" value="custom"></div>
    <div class="form-group"><label>Src IP</label><input name="src_ip" placeholder="*"></div>
    <div class="form-group"><label>Dst IP</label><input name="dst_ip" placeholder="*"></div>
    <div class="form-group"><label>Severity</label><input name="severity" type="number" min="1" max="5" value="2"></div>
    <div class="form-group"><label>Action</label><select name="action"><option>DROP</option><option>REJECT</option><option>ACCEPT</option></select></div>
    <input type="hidden" name="type" value="manual">
    <button class="btn" type="submit">{{.T.Get "action.create_rule"}}</button>
  </form>
</div>
<div class="card">
  <h2><span class="spacer"></span>
    <button class="btn btn-ghost" hx-get="/console/api/rules" hx-target="#rules-body" hx-swap="outerHTML">{{.T.Get "action.refresh"}}</button></h2>
  <table id="rulesTable"><thead><tr><th>ID</th><th>Name</th><th>Src IP</th><th>Dst IP</th><th>Port</th><th>Action</th><th>Expiration</th><th>Type</th><th></th></tr></thead>
  {{template "rules-body" .}}
  </table>
</div>

{{else if eq .Page "monitoring"}}
<h1>{{.T.Get "nav.monitoring"}}</h1>
<div class="card">
  <h2>{{.T.Get "table.flows"}}<span class="spacer"></span>
    <form method="POST" action="/console/monitoring/capture" class="inline" onsubmit="return confirm('{{.T.Get "confirm.capture"}}')">
      <button class="btn" type="submit">{{.T.Get "action.capture"}}</button>
    </form>
    <button class="btn btn-ghost" hx-get="/console/api/monitoring" hx-target="#monitoring-body" hx-swap="outerHTML">{{.T.Get "action.refresh"}}</button></h2>
  <table id="activeFlowsTable"><thead><tr><th>Src IP</th><th>Dst IP</th><th>MB</th><th></th></tr></thead>
  {{template "monitoring-body" .}}
  </table>
</div>
{{end}}
`

const partials = `
{{define "main-body"}}<tbody id="main-body">
{{with .Screen.Main}}{{if .Traffic.Empty}}<tr><td colspan="3" class="message{{if .Traffic.Failed}} failed{{end}}">{{.Traffic.Message}}</td></tr>
{{else}}{{range .Traffic.Rows}}<tr><td>{{.SrcIP}}</td><td>{{.DstIP}}</td><td>{{.MB}}</td></tr>
{{end}}{{end}}{{end}}</tbody>{{end}}

{{define "incidents-body"}}<tbody id="incidents-body">
{{$t := .T}}{{with .Screen.Incidents}}{{if .Empty}}<tr><td colspan="8" class="message{{if .Failed}} failed{{end}}">{{.Message}}</td></tr>
{{else}}{{range .Rows}}<tr>
  <td>{{.ID}}</td><td>{{.Type}}</td>
  <td><span class="badge badge-{{.Severity.Class}}">{{.Severity.Label}}</span></td>
  <td>{{.SrcIP}}</td><td>{{.DstIP}}</td>
  <td><span class="badge badge-{{.Status.Class}}">{{.Status.Label}}</span></td>
  <td>{{.Time}}</td>
  <td>
    <button class="btn btn-ghost" hx-get="/console/api/incidents/{{.ID}}" hx-target="#panel-content" hx-swap="innerHTML">{{$t.Get "action.open"}}</button>
    {{if .Closable}}<form method="POST" action="/console/incidents/{{.ID}}/close" class="inline" onsubmit="return confirm('{{printf ($t.Get "confirm.close_incident") .ID}}')">
      <button class="btn btn-danger" type="submit">{{$t.Get "action.close"}}</button></form>{{end}}
  </td>
</tr>
{{end}}{{end}}{{end}}</tbody>{{end}}

{{define "rules-body"}}<tbody id="rules-body">
{{$t := .T}}{{with .Screen.Rules}}{{if .Empty}}<tr><td colspan="9" class="message{{if .Failed}} failed{{end}}">{{.Message}}</td></tr>
{{else}}{{range .Rows}}<tr>
  <td>{{.ID}}</td><td>{{.Name}}</td><td>{{.SrcIP}}</td><td>{{.DstIP}}</td><td>{{.Port}}</td>
  <td><span class="badge badge-{{.Action.Class}}">{{.Action.Label}}</span></td>
  <td>{{.Expiration}}</td><td>{{.Type}}</td>
  <td>
    <form method="POST" action="/console/rules/{{.ID}}/edit" class="inline"><button class="btn btn-ghost" type="submit">{{$t.Get "action.edit"}}</button></form>
    <form method="POST" action="/console/rules/{{.ID}}/delete" class="inline" onsubmit="return confirm('{{printf ($t.Get "confirm.delete_rule") .ID}}')"><button class="btn btn-danger" type="submit">{{$t.Get "action.delete"}}</button></form>
  </td>
</tr>
{{end}}{{end}}{{end}}</tbody>{{end}}

{{define "monitoring-body"}}<tbody id="monitoring-body">
{{$t := .T}}{{with .Screen.Monitoring}}{{if .Empty}}<tr><td colspan="4" class="message{{if .Failed}} failed{{end}}">{{.Message}}</td></tr>
{{else}}{{range .Rows}}<tr>
  <td>{{.SrcIP}}</td><td>{{.DstIP}}</td><td>{{.MB}}</td>
  <td><form method="POST" action="/console/monitoring/block" class="inline" onsubmit="return confirm('{{printf ($t.Get "confirm.block_ip") .SrcIP}}')">
    <input type="hidden" name="ip" value="{{.SrcIP}}"><button class="btn btn-danger" type="submit">{{$t.Get "action.block"}}</button></form></td>
</tr>
{{end}}{{end}}{{end}}</tbody>{{end}}
`

var pageTmpl = template.Must(template.New("page").Parse(layoutHead + pageBody + layoutFoot + partials))

var incidentDetailTmpl = template.Must(template.New("incident-detail").Parse(`
<div class="panel-header">
  <h3>#{{.Row.ID}} {{.Row.Type}}</h3>
  <button class="panel-close" onclick="closePanel()">&times;</button>
</div>
<div class="panel-body">
  <div class="field"><div class="field-label">Severity</div><div class="field-value"><span class="badge badge-{{.Row.Severity.Class}}">{{.Row.Severity.Label}}</span></div></div>
  <div class="field"><div class="field-label">Status</div><div class="field-value"><span class="badge badge-{{.Row.Status.Class}}">{{.Row.Status.Label}}</span></div></div>
  <div class="field"><div class="field-label">Src IP</div><div class="field-value">{{.Row.SrcIP}}</div></div>
  <div class="field"><div class="field-label">Dst IP</div><div class="field-value">{{.Row.DstIP}}</div></div>
  <div class="field"><div class="field-label">Time</div><div class="field-value">{{.Row.Time}}</div></div>
  <div class="field"><div class="field-label">Description</div><div class="field-value">{{.Row.Description}}</div></div>
</div>`))
