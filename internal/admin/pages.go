package admin

import (
	"fmt"
	"net/http"
	"time"
)

const loginPageHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Debug Access</title>
  </head>
  <body>
    <h1>Enter Access Token</h1>
    <form method="get">
      <input name="token" placeholder="access token" size="40">
      <button>Access</button>
    </form>
  </body>
</html>`

const adminPageHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Home Health Assistant - Admin</title>
    <style>
      body{font:15px system-ui;margin:16px}
      label{margin-right:8px}
      input,button{padding:6px;font:inherit}
      table{border-collapse:collapse;margin-top:10px}
      td,th{border:1px solid #ccc;padding:6px;font-size:13px}
    </style>
  </head>
  <body>
    <h1>Home Health Assistant - Admin</h1>
    <label>Token <input id="tok" size="40" placeholder="access token"></label>
    <label>Search <input id="q" placeholder="text filter"></label>
    <label>Limit <input id="lim" type="number" value="50"></label>
    <button onclick="load()">Load</button>
    <button onclick="csv()">Export CSV</button>
    <div id="n"></div>
    <table id="t"></table>
    <script>
      function esc(s) {
        const div = document.createElement("div");
        div.textContent = s == null ? "" : String(s);
        return div.innerHTML;
      }

      async function load() {
        const tok = document.getElementById("tok").value.trim();
        const q = document.getElementById("q").value.trim();
        const lim = document.getElementById("lim").value || "50";
        const url = "/admin/messages?limit=" + encodeURIComponent(lim) +
          "&search=" + encodeURIComponent(q);
        const r = await fetch(url, { headers: { "X-Debug-Token": tok } });
        if (!r.ok) {
          alert("Auth or fetch error");
          return;
        }
        const data = await r.json();
        document.getElementById("n").textContent = data.length + " messages";
        const rows = ["<tr><th>body</th><th>direction</th><th>kind</th><th>note</th><th>to</th><th>ts</th></tr>"];
        data.forEach(function (m) {
          rows.push("<tr><td>" + esc(m.body) + "</td><td>" + esc(m.direction) +
            "</td><td>" + esc(m.kind) + "</td><td>" + esc(m.note) +
            "</td><td>" + esc(m.to) + "</td><td>" + esc(m.ts) + "</td></tr>");
        });
        document.getElementById("t").innerHTML = rows.join("");
      }

      function csv() {
        const tok = document.getElementById("tok").value.trim();
        fetch("/admin/export.csv", { headers: { "X-Debug-Token": tok } }).then(async function (r) {
          if (!r.ok) {
            alert("Auth error");
            return;
          }
          const blob = await r.blob();
          const a = document.createElement("a");
          a.href = URL.createObjectURL(blob);
          a.download = "export.csv";
          a.click();
        });
      }
    </script>
  </body>
</html>`

// AdminPage handles GET /admin, the message browser. Access control comes
// from the protected route group; the token box feeds the API calls the
// page makes.
func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(adminPageHTML))
}

// DebugPage handles GET /debug. It gates itself so it can offer the token
// form, and a successful check mints the session cookie browsers reuse on
// the rest of the protected surface.
func (h *Handler) DebugPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if !h.auth.Authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(loginPageHTML))
		return
	}
	h.auth.SetSessionCookie(w)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>%s Debug Dashboard</title>
  </head>
  <body>
    <h1>%s Debug Dashboard</h1>
    <p>Status: <b>ok</b></p>
    <table border="1" cellpadding="6">
      <tr><td>MODE</td><td>%s</td></tr>
      <tr><td>UPTIME (SEC)</td><td>%.2f</td></tr>
      <tr><td>TWILIO READY</td><td>%v</td></tr>
      <tr><td>MAPS READY</td><td>%v</td></tr>
      <tr><td>REGION</td><td>%s</td></tr>
      <tr><td>BUILD ID</td><td>%s</td></tr>
      <tr><td>GIT COMMIT</td><td>%s</td></tr>
      <tr><td>VERSION</td><td>%s</td></tr>
      <tr><td>SERVER TIME</td><td>%s</td></tr>
    </table>
    <p>Tip: a query token also works: <code>/debug?token=YOUR_TOKEN</code></p>
  </body>
</html>`,
		h.status.Service, h.status.Service,
		h.status.Mode,
		h.metrics.UptimeSeconds(),
		h.status.SMSReady,
		h.status.MapsReady,
		h.status.Region,
		h.status.BuildID,
		h.status.GitCommit,
		h.status.Version,
		time.Now().UTC().Format(time.RFC3339),
	)
}
