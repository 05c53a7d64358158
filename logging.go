package storagedata

import "log/slog"

func attrKey(key string) slog.Attr { return slog.String("key", key) }

func attrOp(op string) slog.Attr { return slog.String("op", op) }

func attrDriver(d Driver) slog.Attr { return slog.String("driver", string(d)) }

// attrError returns an empty Attr for nil so it is dropped by handlers.
func attrError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}
