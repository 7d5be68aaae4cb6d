// Package telemetry exposes timelock metrics in Prometheus format.
//
// Two sources feed the registry:
//   - operation counters, incremented by core.TimeLock through the Observer hook
//   - a state collector that reads settings, assets and vaults from storage at
//     scrape time
//
// The CLI has no long-running listener, so metrics are exported as a
// textfile for the node_exporter textfile collector.
package telemetry
