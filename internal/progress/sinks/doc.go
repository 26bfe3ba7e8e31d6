// Package sinks implements concrete progress consumers: structured console
// logging and Prometheus metrics. Each sink satisfies the progress.Sink
// interface and is safe for repeated Consume/Close cycles.
package sinks
