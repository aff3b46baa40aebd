package fromparquet

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the converter.
type Metrics struct {
	RowsConverted    prometheus.Counter
	FieldsConverted  prometheus.Counter
	ConversionErrors prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rowsConverted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rowcast_rows_converted_total",
		Help: "Total rows converted into records",
	})

	fieldsConverted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rowcast_fields_converted_total",
		Help: "Total fields converted, including nested fields",
	})

	conversionErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rowcast_conversion_errors_total",
		Help: "Total conversions that produced an embedded error value",
	})

	reg.MustRegister(rowsConverted, fieldsConverted, conversionErrors)

	return &Metrics{
		RowsConverted:    rowsConverted,
		FieldsConverted:  fieldsConverted,
		ConversionErrors: conversionErrors,
	}
}
