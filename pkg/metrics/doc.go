/*
Package metrics exposes Prometheus instrumentation and a liveness/health
JSON endpoint for the judging engine, in the same declarative style the
teacher project uses in pkg/metrics: package-level collector variables
registered once, a promhttp handler for scraping, and a small in-memory
subsystem health registry served at /healthz.
*/
package metrics
