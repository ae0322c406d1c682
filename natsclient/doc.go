// Package natsclient provides a NATS client with circuit breaker protection,
// automatic reconnection and JetStream key-value access.
//
// The tick port uses it as its transport and the report store uses it to
// reach a JetStream KV bucket.
//
// # Core Features
//
// Circuit Breaker Pattern: after a threshold of consecutive failures
// (default: 5) the circuit opens and Connect fails fast with ErrCircuitOpen.
// Each failure doubles the backoff up to WithMaxBackoff, after which the
// circuit is half-opened for another attempt.
//
// Connection Lifecycle: Disconnected → Connecting → Connected →
// Reconnecting → Connected. Status changes are logged, reported through
// OnHealthChange and exported as the tickfifo_nats_connected gauge when
// WithMetrics is set.
//
// JetStream: JetStream() returns the jetstream handle created on Connect and
// CreateKeyValueBucket gets or creates a KV bucket, tolerating a concurrent
// creator.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithName("fifosim"),
//		natsclient.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Subscribe(ctx, "tickfifo.tick", func(ctx context.Context, data []byte) {
//		// handle message
//	})
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Handlers passed to
// Subscribe run on the NATS delivery goroutine with a per-message context
// bounded to 30 seconds.
package natsclient
