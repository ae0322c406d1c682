// Package reportstore persists scenario reports in a key-value bucket.
//
// Reports are stored as Records keyed by report ID, encoded with JSON or
// MessagePack (see Codec). The bucket is a JetStream KV bucket reached
// through natsclient (Open, KVBucket) or a local badger database
// (OpenBadger). OpenURL picks one from memory://, badger:///dir or
// kv://BUCKET, with an optional ?codec=msgpack.
//
//	store, err := reportstore.Open(ctx, client, reportstore.BucketConfig("", 24*time.Hour))
//	if err != nil {
//		return err
//	}
//	if err := store.Save(ctx, report); err != nil {
//		return err
//	}
//
// Writes are retried on transient failures using pkg/retry. A missing ID
// yields an invalid error wrapping ErrNotFound.
package reportstore
