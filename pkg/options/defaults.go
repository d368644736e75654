package options

import "time"

const (
	// DefaultDataDir is the base directory where znsfs stores its device
	// image if no other directory is specified.
	DefaultDataDir = "/var/lib/znsfs"

	// DefaultLogZones is the number of leading zones reserved for the
	// FTL's log-zone ring when not overridden.
	DefaultLogZones uint32 = 4

	// DefaultGCWatermark is the fraction of one zone's block count that
	// triggers GC when free log-zone blocks fall to or below it.
	DefaultGCWatermark = 0.25

	// DefaultDeviceImageDirectory is the default subdirectory within
	// DataDir where per-zone backing files are stored.
	DefaultDeviceImageDirectory = "/zones"

	// DefaultDeviceImagePrefix is the default filename prefix for zone
	// image files.
	DefaultDeviceImagePrefix = "zone"

	// DefaultWorkerPoolSize is the number of workers spawned eagerly.
	DefaultWorkerPoolSize = 4

	// DefaultWorkerPoolMaxSize bounds on-demand worker spawning.
	DefaultWorkerPoolMaxSize = 16

	// DefaultMountTimeout is no timeout.
	DefaultMountTimeout = time.Duration(0)
)

// defaultOptions holds the default configuration for a znsfs instance.
var defaultOptions = Options{
	DataDir:     DefaultDataDir,
	LogZones:    DefaultLogZones,
	GCWatermark: DefaultGCWatermark,
	ForceReset:  false,
	DeviceImageOptions: &deviceImageOptions{
		Directory: DefaultDeviceImageDirectory,
		Prefix:    DefaultDeviceImagePrefix,
	},
	WorkerPoolOptions: &workerPoolOptions{
		Size:    DefaultWorkerPoolSize,
		MaxSize: DefaultWorkerPoolMaxSize,
	},
	MountTimeout: DefaultMountTimeout,
}

// NewDefaultOptions returns a fresh copy of the default configuration.
func NewDefaultOptions() Options {
	opts := defaultOptions
	deviceImg := *defaultOptions.DeviceImageOptions
	workerPool := *defaultOptions.WorkerPoolOptions
	opts.DeviceImageOptions = &deviceImg
	opts.WorkerPoolOptions = &workerPool
	return opts
}
