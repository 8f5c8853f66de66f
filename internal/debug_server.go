package internal

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"snappy-chat/domain"
	"snappy-chat/repositories"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const pageTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>snappy-chat inspector</title></head>
<body>
<h1>Messages{{if .Recipient}} to {{.Recipient}}{{end}}</h1>
<ul>{{range $k, $v := .Stats}}<li>{{$k}}: {{$v}}</li>{{end}}</ul>
<table>
<tr><th>ID</th><th>Sender</th><th>Recipient</th><th>Delivered</th><th>Timestamp</th><th>Message</th></tr>
{{range .Items}}<tr><td>{{.ID}}</td><td>{{.Sender}}</td><td>{{.Recipient}}</td><td>{{.Delivered}}</td><td>{{.Timestamp}}</td><td>{{.Message}}</td></tr>
{{end}}</table>
</body></html>`

var page = template.Must(template.New("inspect").Parse(pageTemplate))

type InspectRow struct {
	ID        string
	Sender    string
	Recipient string
	Delivered bool
	Timestamp string
	Message   string
}

type StatsProvider func() map[string]any

type PageData struct {
	Recipient string
	Items     []InspectRow
	Stats     map[string]any
}

// NewInspectHandler renders the stored messages as an HTML table.
// The optional "to" query parameter keeps only one recipient's messages.
func NewInspectHandler(db *badger.DB, statsProvider StatsProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recipient := r.URL.Query().Get("to")
		messages, err := repositories.ReadMessages(db)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recipient != "" {
			messages = lo.Filter(messages, func(m domain.Message, _ int) bool {
				return domain.SamePrincipal(m.Recipient, recipient)
			})
		}

		data := PageData{
			Recipient: recipient,
			Items:     lo.Map(messages, func(m domain.Message, _ int) InspectRow { return toRow(m) }),
			Stats:     make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = page.Execute(w, data)
	})
}

func toRow(m domain.Message) InspectRow {
	return InspectRow{
		ID:        strconv.FormatUint(m.ID, 10),
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Delivered: m.Delivered,
		Timestamp: m.At.UTC().Format(time.DateTime),
		Message:   m.Content,
	}
}

// StartDebugServer serves the inspector on its own port until ctx is done.
func StartDebugServer(ctx context.Context, log *slog.Logger, db *badger.DB, port int, endpoint string, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	mux.Handle(endpoint, NewInspectHandler(db, statsProvider))
	server := &http.Server{Addr: fmt.Sprintf("0.0.0.0:%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
}
