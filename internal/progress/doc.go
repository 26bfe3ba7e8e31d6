// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the catalog builder uses to report crawl progress. A
// background goroutine fans events out to pluggable sinks such as the
// console logger or Prometheus metrics, preserving emit order.
package progress
