package schedule

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mimakeko/homehealth-assistant/internal/http/middleware"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

const dateLayout = "2006-01-02"

const loginPageHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Schedule Access</title>
  </head>
  <body>
    <h1>Enter Access Token</h1>
    <form method="get">
      <input name="token" placeholder="access token" size="40">
      <button>Access</button>
    </form>
  </body>
</html>`

const schedulePageHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Day Schedule</title>
    <style>
      body{font:15px system-ui;margin:16px}
      h1{margin:0 0 10px}
      .controls{display:flex;gap:8px;flex-wrap:wrap;margin-bottom:10px}
      input,button{padding:8px;font:inherit}
      .card{border:1px solid #ddd;border-radius:8px;padding:10px;margin:8px 0}
      .small{color:#555;font-size:13px}
      .badge{background:#eef;padding:2px 6px;border-radius:6px}
      .drive{color:#086;font-size:13px;margin-top:4px}
    </style>
  </head>
  <body>
    <h1>Day Schedule</h1>
    <div class="controls">
      <label>Date <input id="d" type="date"></label>
      <label>Therapist <input id="t" placeholder="(optional)"></label>
      <button onclick="load()">Load</button>
      <button onclick="opt()">Optimize</button>
      <small id="note"></small>
    </div>
    <div id="list"></div>
    <script>
      document.getElementById("d").value = new Date().toISOString().slice(0, 10);

      function params() {
        return {
          date: document.getElementById("d").value || new Date().toISOString().slice(0, 10),
          therapist: document.getElementById("t").value.trim(),
        };
      }

      function esc(s) {
        const div = document.createElement("div");
        div.textContent = s == null ? "" : String(s);
        return div.innerHTML;
      }

      function render(appts, banner) {
        document.getElementById("note").textContent = banner || "";
        const list = document.getElementById("list");
        list.innerHTML = "";
        appts.forEach(function (a) {
          const card = document.createElement("div");
          card.className = "card";
          let html = "<b>" + esc(a.patient_name || "(unknown)") + "</b> " +
            "<span class=\"badge\">" + esc(a.status || "") + "</span>" +
            "<div class=\"small\">" + esc(a.start_iso || "") + "</div>" +
            "<div class=\"small\">" + esc(a.address || "") + ", " + esc(a.city || "") + ", " +
            esc(a.state || "") + " " + esc(a.zip || "") + "</div>";
          if (a.lat != null && a.lon != null) {
            html += "<div class=\"small\">Lat,Lon: " + esc(a.lat) + ", " + esc(a.lon) + "</div>";
          }
          html += "<div class=\"small\">phone: " + esc(a.patient_phone || "") + "</div>";
          if (a.drive_to_next_text) {
            html += "<div class=\"drive\">drive to next: " + esc(a.drive_to_next_text) + "</div>";
          }
          card.innerHTML = html;
          list.appendChild(card);
        });
      }

      async function load() {
        const p = params();
        let url = "/schedule?date=" + encodeURIComponent(p.date);
        if (p.therapist) {
          url += "&therapist=" + encodeURIComponent(p.therapist);
        }
        const r = await fetch(url);
        if (!r.ok) {
          alert("Load error: HTTP " + r.status);
          return;
        }
        const j = await r.json();
        render(j.appointments || [], "");
      }

      async function opt() {
        const p = params();
        const r = await fetch("/schedule/optimize", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(p),
        });
        if (!r.ok) {
          alert("Optimize error: HTTP " + r.status);
          return;
        }
        const j = await r.json();
        render(j.appointments || [], "Optimized. Drive time: " + (j.drive_time ? "ON" : "OFF"));
      }
    </script>
  </body>
</html>`

// Handler serves the day schedule JSON endpoints and the operator UI page.
type Handler struct {
	service   *Service
	auth      *middleware.TokenAuth
	mapsReady bool
	logger    *logging.Logger
}

// NewHandler creates the schedule handler. mapsReady reports whether a live
// maps provider backs drive-time lookups; it only affects the optimize
// response flag, estimates still work without it.
func NewHandler(service *Service, auth *middleware.TokenAuth, mapsReady bool, logger *logging.Logger) *Handler {
	return &Handler{
		service:   service,
		auth:      auth,
		mapsReady: mapsReady,
		logger:    logger.Named("schedule_handler"),
	}
}

type dayResponse struct {
	Appointments []*Stop `json:"appointments"`
	Status       string  `json:"status"`
}

type optimizeRequest struct {
	Date      string `json:"date"`
	Therapist string `json:"therapist"`
}

type optimizeResponse struct {
	Date         string  `json:"date"`
	Therapist    string  `json:"therapist"`
	DriveTime    bool    `json:"drive_time"`
	OK           bool    `json:"ok"`
	Appointments []*Stop `json:"appointments"`
}

// GetSchedule handles GET /schedule?date=YYYY-MM-DD&therapist=.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	day, dateStr, ok := h.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	therapist := strings.TrimSpace(r.URL.Query().Get("therapist"))

	stops, err := h.service.GetDay(r.Context(), day, therapist)
	if err != nil {
		h.logger.Error("schedule load failed", "date", dateStr, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "schedule unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, dayResponse{Appointments: stops, Status: "ok"})
}

// OptimizeSchedule handles POST /schedule/optimize.
func (h *Handler) OptimizeSchedule(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if r.Body != nil {
		// An empty or malformed body means "today, all therapists".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	day, dateStr, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	therapist := strings.TrimSpace(req.Therapist)

	stops, err := h.service.OptimizeDay(r.Context(), day, therapist)
	if err != nil {
		h.logger.Error("schedule optimize failed", "date", dateStr, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "schedule unavailable"})
		return
	}

	label := therapist
	if label == "" {
		label = "unknown"
	}
	respondJSON(w, http.StatusOK, optimizeResponse{
		Date:         dateStr,
		Therapist:    label,
		DriveTime:    h.mapsReady,
		OK:           true,
		Appointments: stops,
	})
}

// SchedulePage handles GET /ui/schedule. The page gates itself so it can
// show a token form instead of a bare 401, and a successful token check
// mints the session cookie that keeps later API calls authorized.
func (h *Handler) SchedulePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if !h.auth.Authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(loginPageHTML))
		return
	}
	h.auth.SetSessionCookie(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schedulePageHTML))
}

// parseDate interprets the date parameter in the clinic timezone, defaulting
// to today. On invalid input it writes a 400 and reports !ok.
func (h *Handler) parseDate(w http.ResponseWriter, raw string) (time.Time, string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now := time.Now().In(h.service.Location())
		return now, now.Format(dateLayout), true
	}
	day, err := time.ParseInLocation(dateLayout, raw, h.service.Location())
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, "", false
	}
	return day, raw, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
