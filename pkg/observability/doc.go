/*
Package observability exports editor activity as Prometheus metrics.

Metrics are fed by the editor's lifecycle hooks: step navigation, autosaves,
completions and suggestion requests. Bind them with Metrics.Hooks and serve
them with Handler.
*/
package observability
