package webgpunative

import "log/slog"

// Option configures an Instance during creation.
//
// Example:
//
//	inst := webgpunative.NewInstance(
//	    webgpunative.WithBackend("soft"),
//	    webgpunative.WithUploadCopy(true),
//	)
type Option func(*options)

// options holds the configuration shared by every object of an Instance.
type options struct {
	backend          string
	softwareFallback bool
	uploadCopy       bool
	debug            bool
	logger           *slog.Logger
}

// defaultOptions returns the default instance options.
func defaultOptions() options {
	return options{
		softwareFallback: true,
	}
}

// WithBackend selects a backend by registry name ("dx12", "metal",
// "vulkan", "soft"). The default is the highest-priority linked backend
// whose instance opens.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithSoftwareFallback controls whether adapter selection may bind a
// software adapter when no hardware adapter is enumerated. Enabled by
// default.
func WithSoftwareFallback(enabled bool) Option {
	return func(o *options) {
		o.softwareFallback = enabled
	}
}

// WithUploadCopy makes Queue.WriteBuffer copy the staging data into the
// destination buffer on the GPU. By default the data only reaches the
// staging allocation.
func WithUploadCopy(enabled bool) Option {
	return func(o *options) {
		o.uploadCopy = enabled
	}
}

// WithDebug enables the backend debug layer. Queued debug messages are
// logged at debug level after backend failures.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithLogger sets a logger for this instance only. Objects of the instance
// log through it instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}
