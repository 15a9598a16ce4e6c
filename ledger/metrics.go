package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var costRecordCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vernis_ledger_cost_records",
	Help: "Number of cost records appended",
})

var monthlyCostGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "vernis_ledger_monthly_cost_total",
	Help: "Estimated vision cost for the current UTC calendar month",
})

var budgetAlertCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vernis_ledger_budget_alerts",
	Help: "Number of monthly budget threshold crossings",
})
