package storagedata

import (
	"fmt"
	"log/slog"
)

// Option configures a Cell at construction time.
type Option func(*options)

type options struct {
	kind           Kind
	store          Store
	backend        *Backend
	codec          Codec
	persistOnClose bool
	failHard       bool
	logger         *slog.Logger
	observer       Observer
}

func defaultOptions() options {
	return options{
		kind:           KindLocal,
		persistOnClose: true,
		failHard:       true,
	}
}

// WithKind selects the storage namespace the cell lives in.
func WithKind(kind Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithLocal targets durable storage.
func WithLocal() Option { return WithKind(KindLocal) }

// WithSession targets ephemeral storage.
func WithSession() Option { return WithKind(KindSession) }

// WithStore binds the cell to a specific store, bypassing the backend.
func WithStore(store Store) Option {
	return func(o *options) { o.store = store }
}

// WithBackend resolves the cell's store from backend instead of DefaultBackend.
func WithBackend(backend *Backend) Option {
	return func(o *options) { o.backend = backend }
}

// WithFormat selects a built-in codec.
// Panics for unknown formats so misconfiguration fails at startup.
func WithFormat(f Format) Option {
	codec, err := CodecFor(f)
	if err != nil {
		panic(fmt.Errorf("invalid codec format: %w", err))
	}
	return WithCodec(codec)
}

// WithCodec sets a custom codec. Nil codecs are ignored.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// WithCodecFuncs builds a codec from an encode/decode pair.
func WithCodecFuncs(encode func(v any) (string, error), decode func(s string, out any) error) Option {
	return WithCodec(CodecFuncs{EncodeFunc: encode, DecodeFunc: decode})
}

// WithPersistOnClose controls whether Close attempts a save.
// Only changed values, or values whose key is absent from the store, are written.
func WithPersistOnClose(persist bool) Option {
	return func(o *options) { o.persistOnClose = persist }
}

// WithFailHardOnDecodeError controls whether an undecodable stored entry
// panics (true) or silently falls back to the default value (false).
func WithFailHardOnDecodeError(failHard bool) Option {
	return func(o *options) { o.failHard = failHard }
}

// WithLogger sets the logger used for degraded reads and failed saves on close.
// Nil loggers are ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver attaches an observer to receive store operation events.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}
