package accountwatch

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "eventwatch/accountwatch"

type metrics struct {
	ticks             metric.Int64Counter
	eventsPersisted   metric.Int64Counter
	unknownEvents     metric.Int64Counter
	truncatedEvents   metric.Int64Counter
	malformedLogLines metric.Int64Counter
	persistFailures   metric.Int64Counter
	backoffs          metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			otel.Handle(err)
		}
		return c
	}

	return &metrics{
		ticks:             counter("accountwatch.ticks", "Polling ticks executed per account"),
		eventsPersisted:   counter("accountwatch.events.persisted", "Decoded events durably stored"),
		unknownEvents:     counter("accountwatch.events.unknown", "Event payloads with an unregistered discriminant"),
		truncatedEvents:   counter("accountwatch.events.truncated", "Event payloads that ended before their schema was satisfied"),
		malformedLogLines: counter("accountwatch.loglines.malformed", "Event-bearing log lines that failed transport decoding"),
		persistFailures:   counter("accountwatch.persist.failures", "Failed event storage writes"),
		backoffs:          counter("accountwatch.backoffs", "Ticks that ended in backoff"),
	}
}
