// Package health reports component health for the /health endpoint.
//
// A Status is healthy, degraded or unhealthy. Aggregate combines statuses:
// any unhealthy child makes the parent unhealthy, otherwise any degraded
// child makes it degraded.
//
// Monitor tracks named components, either as probes evaluated on every
// check or as pushed statuses:
//
//	mon := health.NewMonitor()
//	mon.Register("fifo", func() health.Status { return health.FromBuffer("fifo", buf) })
//	mon.Register("port", port.Health)
//	server := metric.NewServer(9090, "/metrics", registry, mon.HealthFunc("fifosim"))
//
// Error text placed in a status by FromError is sanitized: URLs, paths, IP
// addresses, ports and credential-looking pairs are replaced by
// placeholders.
package health
