package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	ShipmentsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_shipments_delivered_total",
		Help: "Total number of shipments marked delivered.",
	})

	DuplicateCommandsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_duplicate_commands_total",
		Help: "Total number of commands suppressed by the idempotent dispatcher.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OutboxTasksPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_outbox_tasks_published_total",
		Help: "Total number of outbox tasks published to the bus.",
	})

	OrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fulfillment_order_cache_items",
		Help: "Current number of items in the open-order cache.",
	})
)
