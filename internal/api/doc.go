// Package api provides the HTTP control surface for running pool scenarios.
//
// Endpoints:
//
//	GET  /api/status          current scenario and pool state
//	GET  /api/metrics         metrics snapshot of the current or last run
//	GET  /api/result          result of the last completed run
//	GET  /api/presets         available scenario presets
//	POST /api/scenario/start  start a scenario from a preset with overrides
//	POST /api/scenario/stop   stop submitting; queued jobs still drain
//	GET  /ws                  websocket stream of pool events
//	GET  /metrics             Prometheus exposition
package api
