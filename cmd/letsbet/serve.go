package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/internal/logutil"
	"github.com/HemangVora/LetsBet/market"
)

const marketsPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Prediction Markets</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #ddd; }
.status-open { color: #2a7a2a; }
.status-resolved { color: #888; }
</style>
</head>
<body>
<h1>Prediction Markets</h1>
{{if .Markets}}
<table>
<tr><th>#</th><th>Question</th><th>Ends</th><th>Yes Pool (APT)</th><th>No Pool (APT)</th><th>Status</th></tr>
{{range .Markets}}
<tr>
<td>{{.ID}}</td>
<td>{{.Question}}</td>
<td>{{.EndsAt}}</td>
<td>{{.YesPool}}</td>
<td>{{.NoPool}}</td>
<td class="{{.StatusClass}}">{{.Status}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No prediction markets yet.</p>
{{end}}
<p><small>Updated {{.UpdatedAt}}</small></p>
</body>
</html>
`

type marketRow struct {
	ID          string
	Question    string
	EndsAt      string
	YesPool     string
	NoPool      string
	Status      string
	StatusClass string
}

type marketsPage struct {
	Markets   []marketRow
	UpdatedAt string
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the markets overview page over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			bind := strings.TrimSpace(flagOrViperString(cmd, "server-bind", "server.bind"))
			if bind == "" {
				bind = "127.0.0.1"
			}
			port := flagOrViperInt(cmd, "server-port", "server.port")
			if port <= 0 {
				port = 8787
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			nodeURL := strings.TrimSpace(flagOrViperString(cmd, "aptos-node-url", "aptos.node_url"))
			if nodeURL == "" {
				nodeURL = aptos.TestnetNodeURL
			}
			chain := aptos.NewClient(nodeURL)
			submitter := market.NewSubmitter(chain, viper.GetString("aptos.module_address"), logger)

			tmpl := template.Must(template.New("markets").Parse(marketsPageTemplate))

			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok":   true,
					"time": time.Now().Format(time.RFC3339Nano),
				})
			})
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/" {
					http.NotFound(w, r)
					return
				}
				markets, err := submitter.FetchAllMarkets(r.Context())
				if err != nil {
					logger.Warn("fetch_markets_error", "error", err.Error())
					http.Error(w, "failed to fetch markets", http.StatusBadGateway)
					return
				}
				page := marketsPage{UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
				for _, m := range markets {
					page.Markets = append(page.Markets, rowFromMarket(m))
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if err := tmpl.Execute(w, page); err != nil {
					logger.Warn("render_error", "error", err.Error())
				}
			})
			mux.HandleFunc("/markets.json", func(w http.ResponseWriter, r *http.Request) {
				markets, err := submitter.FetchAllMarkets(r.Context())
				if err != nil {
					logger.Warn("fetch_markets_error", "error", err.Error())
					http.Error(w, "failed to fetch markets", http.StatusBadGateway)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(markets)
			})

			addr := bind + ":" + strconv.Itoa(port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Info("server_start", "addr", addr, "node_url", nodeURL)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().String("server-bind", "127.0.0.1", "Bind address (default: 127.0.0.1).")
	cmd.Flags().Int("server-port", 8787, "HTTP port to listen on.")
	cmd.Flags().String("aptos-node-url", "", "Aptos fullnode URL (default: testnet).")

	return cmd
}

func rowFromMarket(m market.Market) marketRow {
	row := marketRow{
		ID:       m.ID.String(),
		Question: m.Question,
		EndsAt:   "unknown",
		YesPool:  aptFromOctas(m.TotalYesAmount),
		NoPool:   aptFromOctas(m.TotalNoAmount),
	}
	if secs, err := m.EndTime.Int64(); err == nil {
		row.EndsAt = time.Unix(secs, 0).UTC().Format("2006-01-02 15:04 MST")
	}
	switch m.Status {
	case 0:
		row.Status = "Open"
		row.StatusClass = "status-open"
	default:
		row.Status = fmt.Sprintf("Resolved (%d)", m.Outcome)
		row.StatusClass = "status-resolved"
	}
	return row
}

func aptFromOctas(n json.Number) string {
	octas, err := n.Int64()
	if err != nil {
		return n.String()
	}
	return decimal.New(octas, -8).String()
}
