package apiv1

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var consolePage = template.Must(template.New("console").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Agent console</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.state{color:#057a55}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2>{{.Name}}</h2>
  <p class="state">{{.State}}{{if .DaysLeft}}, {{.DaysLeft}} days left{{end}}</p>
  <a href="/organizations/{{.OrgID}}/workforce">Back to workforce</a>
  <div class="small">Agent {{.AgentID}}</div>
</div>
</body>
</html>`))

// handleConsole renders the agent console. The gate has already checked access.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	orgID, agentID := chi.URLParam(r, "orgID"), chi.URLParam(r, "agentID")
	view, err := s.d.Subscriptions.Current(r.Context(), viewerFrom(r.Context()), agentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = consolePage.Execute(w, struct {
		Name     string
		State    string
		DaysLeft int
		OrgID    string
		AgentID  string
	}{
		Name:     "Agent console",
		State:    string(view.State),
		DaysLeft: view.DaysLeft,
		OrgID:    orgID,
		AgentID:  agentID,
	})
}
