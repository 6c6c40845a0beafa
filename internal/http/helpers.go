package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"txdash/internal/core"
)

var templateFuncs = template.FuncMap{
	"amount": core.AmountString,
}

type cardView struct {
	Name  string
	Items []core.Transaction
}

type customerOption struct {
	ID       int64
	Name     string
	Selected bool
}

// chartData is the JSON body of /api/daily-totals. Totals are written as
// JSON numbers straight from their decimal form so no precision is lost.
type chartData struct {
	Labels []string      `json:"labels"`
	Data   []json.Number `json:"data"`
	Label  string        `json:"label"`
}

func filterFromRequest(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		Name:             q.Get("name"),
		Amount:           q.Get("amount"),
		SelectedCustomer: q.Get("customer_id"),
	}
}

func viewCacheKey(version int64, f core.Filter) string {
	return strconv.FormatInt(version, 10) + "|" + f.Key()
}

func cardsFrom(groups []core.CustomerGroup) []cardView {
	cards := make([]cardView, 0, len(groups))
	for _, g := range groups {
		cards = append(cards, cardView{Name: g.CustomerName, Items: g.Transactions})
	}
	return cards
}

// customerOptions marks the option whose value equals the raw selection, the
// way a controlled select would.
func customerOptions(customers []core.Customer, selected string) []customerOption {
	opts := make([]customerOption, 0, len(customers))
	for _, c := range customers {
		id := strconv.FormatInt(c.ID, 10)
		opts = append(opts, customerOption{ID: c.ID, Name: c.Name, Selected: selected != "" && id == selected})
	}
	return opts
}

func chartFrom(series []core.DailyTotal) chartData {
	out := chartData{
		Labels: make([]string, 0, len(series)),
		Data:   make([]json.Number, 0, len(series)),
		Label:  chartLabel,
	}
	for _, d := range series {
		out.Labels = append(out.Labels, d.Date)
		out.Data = append(out.Data, json.Number(core.AmountString(d.Total)))
	}
	return out
}
