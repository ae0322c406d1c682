package reportstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/natsclient"
)

// OpenURL opens a Store from a URL and returns it with a close function.
//
//	memory://          in-memory badger
//	badger:///path     badger database in /path
//	kv://BUCKET        JetStream KV bucket over client (BUCKET optional)
//
// A codec query parameter selects the record encoding, e.g.
// badger:///var/lib/tickfifo?codec=msgpack.
func OpenURL(ctx context.Context, rawURL string, client *natsclient.Client, logger *slog.Logger, opts ...Option) (*Store, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rawURL, rawQuery, _ := strings.Cut(rawURL, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"reportstore", "OpenURL", "parse query")
	}
	codec, err := CodecByName(query.Get("codec"))
	if err != nil {
		return nil, nil, err
	}

	opts = append([]Option{WithLogger(logger), WithCodec(codec)}, opts...)
	noop := func() error { return nil }

	switch {
	case rawURL == "memory://":
		b, err := OpenBadger("", logger)
		if err != nil {
			return nil, nil, err
		}
		return New(b, opts...), b.Close, nil

	case strings.HasPrefix(rawURL, "badger://"):
		dir := strings.TrimPrefix(rawURL, "badger://")
		if dir == "" {
			return nil, nil, errors.WrapInvalid(
				fmt.Errorf("%w: badger URL needs a path", errors.ErrInvalidConfig),
				"reportstore", "OpenURL", "parse "+rawURL)
		}
		b, err := OpenBadger(dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return New(b, opts...), b.Close, nil

	case strings.HasPrefix(rawURL, "kv://"):
		if client == nil {
			return nil, nil, errors.WrapInvalid(errors.ErrNoConnection, "reportstore", "OpenURL", "kv store needs a NATS client")
		}
		s, err := Open(ctx, client, BucketConfig(strings.TrimPrefix(rawURL, "kv://"), 0), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	default:
		return nil, nil, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported store URL %q", errors.ErrInvalidConfig, rawURL),
			"reportstore", "OpenURL", "parse")
	}
}
