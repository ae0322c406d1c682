// Package config loads and validates tickfifo application configuration.
//
// Configuration is JSON with four sections: fifo (buffer width and depth),
// metrics (Prometheus endpoint), nats (connection and subject prefix for the
// tick port) and runner (scenario execution). Every file is checked against
// an embedded JSON Schema before it is decoded, then the decoded Config is
// validated. Validation failures are classified invalid and wrap
// errors.ErrInvalidConfig.
//
// # Basic Usage
//
//	cfg, err := config.Load("tickfifo.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	buf, err := fifo.New(cfg.FIFO.Buffer())
//
// Layers are merged in order on top of Default():
//
//	loader := config.NewLoader()
//	loader.AddLayer("base.json")
//	loader.AddLayer("local.json")
//	cfg, err := loader.Load()
//
// # Environment Overrides
//
// After the file layers, TICKFIFO_WIDTH, TICKFIFO_DEPTH,
// TICKFIFO_METRICS_PORT, TICKFIFO_WORKERS, TICKFIFO_NATS_URL and
// TICKFIFO_NATS_SUBJECT override the corresponding fields.
//
// # Thread Safety
//
// SafeConfig wraps a Config behind an RWMutex. Get returns a deep copy and
// Update validates before swapping.
package config
