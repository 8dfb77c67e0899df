package vtanalytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var pageVisitsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vitrine_page_visits_total",
		Help: "Nombre de visites enregistrées par page",
	},
	[]string{"page"},
)

func init() {
	prometheus.MustRegister(pageVisitsTotal)
}
