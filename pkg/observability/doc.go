/*
Package observability turns device lifecycle events into Prometheus metrics
and structured log lines.

Both are exposed as domain.LifecycleHooks so they can be merged into the
hooks of a jobs.Manager or a single device.Machine.
*/
package observability
