// Package retry provides exponential backoff retry for transient failures.
//
// Do runs a function until it succeeds or the attempts run out. Which
// failures earn another attempt is decided by Config.Retryable, which
// defaults to errors.IsTransient from the tickfifo errors package: invalid
// and fatal errors are returned on the first occurrence. NonRetryable marks
// a single error as final regardless of its class.
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage
//
//	err := retry.Do(ctx, retry.Quick(), func() error {
//	    return client.Connect(ctx)
//	})
//
//	bucket, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (jetstream.KeyValue, error) {
//	    return client.CreateKeyValueBucket(ctx, cfg)
//	})
//
// Exhausted attempts and context cancellation both return a transient
// error wrapping the cause.
package retry
