// Package znsfs is the public entry point for the storage stack: it
// wires the simulated ZNS device, the flash translation layer, the
// background worker pool, and the log-structured filesystem behind a
// single Mount/Unmount lifecycle, exposing the filesystem API an
// embedding KV engine consumes.
package znsfs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/znsfs/znsfs/internal/device"
	"github.com/znsfs/znsfs/internal/filesystem"
	"github.com/znsfs/znsfs/internal/ftl"
	"github.com/znsfs/znsfs/internal/threadpool"
	"github.com/znsfs/znsfs/pkg/errors"
	"github.com/znsfs/znsfs/pkg/logger"
	"github.com/znsfs/znsfs/pkg/options"
)

// Handle aliases let callers reference the file handles through this
// package alone, without importing internal/filesystem directly.
type (
	SequentialFile   = filesystem.SequentialFile
	RandomAccessFile = filesystem.RandomAccessFile
	WritableFile     = filesystem.WritableFile
	Directory        = filesystem.Directory
)

// WithLockOwner re-exports filesystem.WithLockOwner: the
// context-carried caller identity Lock/Unlock use to decide ownership.
var WithLockOwner = filesystem.WithLockOwner

// Attr is the stat-shaped view of one directory entry, re-exported so
// callers never import internal/filesystem directly.
type Attr = filesystem.Attr

// Geometry describes the ZNS device this instance mounts: zone count,
// blocks per zone, LBA size, and MDTS. Unlike options.Options, geometry
// is fixed at device-creation time and is never subject to the
// functional-options overlay; everything else derives from it.
type Geometry = device.Geometry

// Instance is the mounted storage stack. It embeds
// *filesystem.Filesystem so the full namespace API (Exists,
// NewSequentialFile, NewWritableFile, CreateDir, Rename, Delete, Lock,
// GetAbsolutePath, ...) is available directly on Instance.
type Instance struct {
	*filesystem.Filesystem

	dev  device.Device
	ftl  *ftl.FTL
	pool *threadpool.Pool

	// mountID is a per-mount identifier attached to every log line this
	// instance emits, so concurrent test runs and multi-instance
	// deployments sharing one log stream stay distinguishable. It never
	// touches on-media format.
	mountID string
	log     *zap.SugaredLogger

	opts *options.Options
}

// MountID returns the identifier assigned to this mount at Mount time.
func (i *Instance) MountID() string {
	return i.mountID
}

// Mount brings up a complete storage stack over a simulated ZNS device
// of the given geometry: it opens the device image, initializes the
// FTL's log/data mapping engine, starts the background worker pool, and
// mounts the log-structured filesystem on top. service names the
// structured logger every subsystem shares.
func Mount(ctx context.Context, service string, geom Geometry, opts ...options.OptionFunc) (*Instance, error) {
	if service == "" {
		return nil, errors.NewRequiredFieldError("service")
	}

	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	if defaultOpts.MountTimeout <= 0 {
		return mount(service, geom, log, &defaultOpts)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultOpts.MountTimeout)
	defer cancel()

	type result struct {
		inst *Instance
		err  error
	}
	done := make(chan result, 1)
	go func() {
		inst, err := mount(service, geom, log, &defaultOpts)
		done <- result{inst, err}
	}()

	select {
	case r := <-done:
		return r.inst, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("znsfs: mount: %w", ctx.Err())
	}
}

// mount performs the actual device-open/FTL-init/pool-start/filesystem
// mount sequence; Mount wraps it with the optional MountTimeout deadline.
func mount(service string, geom Geometry, log *zap.SugaredLogger, defaultOpts *options.Options) (*Instance, error) {
	mountID := uuid.New().String()
	log = log.With("mountId", mountID)

	dev, err := device.Open(&device.Config{
		Geometry:   geom,
		ImageDir:   filepath.Join(defaultOpts.DataDir, defaultOpts.DeviceImageOptions.Directory),
		Prefix:     defaultOpts.DeviceImageOptions.Prefix,
		ForceReset: defaultOpts.ForceReset,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("znsfs: mount: open device: %w", err)
	}

	ftlInst, err := ftl.Init(&ftl.Config{
		Device:      dev,
		Logger:      log,
		LogZones:    defaultOpts.LogZones,
		GCWatermark: defaultOpts.GCWatermark,
	})
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("znsfs: mount: init ftl: %w", err)
	}

	pool, err := threadpool.New(&threadpool.Config{
		Size:    defaultOpts.WorkerPoolOptions.Size,
		MaxSize: defaultOpts.WorkerPoolOptions.MaxSize,
		Logger:  log,
	})
	if err != nil {
		_ = ftlInst.Deinit()
		_ = dev.Close()
		return nil, fmt.Errorf("znsfs: mount: start worker pool: %w", err)
	}

	fs, err := filesystem.New(&filesystem.Config{
		Device:        ftlInst,
		DataZones:     geom.Zones - defaultOpts.LogZones,
		BlocksPerZone: geom.BlocksPerZone,
		LBASize:       geom.LBASize,
		Pool:          pool,
		Logger:        log,
	})
	if err != nil {
		_ = pool.Close()
		_ = ftlInst.Deinit()
		_ = dev.Close()
		return nil, fmt.Errorf("znsfs: mount: mount filesystem: %w", err)
	}

	log.Infow(
		"znsfs mounted",
		"service", service,
		"dataDir", defaultOpts.DataDir,
		"zones", geom.Zones,
		"logZones", defaultOpts.LogZones,
		"capacityBytes", ftlInst.Capacity(),
	)

	return &Instance{
		Filesystem: fs,
		dev:        dev,
		ftl:        ftlInst,
		pool:       pool,
		mountID:    mountID,
		log:        log,
		opts:       defaultOpts,
	}, nil
}

// Unmount stops the background GC scan loop and worker pool, tears
// down the FTL's GC worker, and releases the underlying device image,
// in that dependency order (reverse of Mount). Unlike Mount, which
// fails fast on the first error, Unmount always attempts every teardown
// step and aggregates whatever failed, so a failure to close the device
// doesn't hide a failure to stop the filesystem's background scan.
func (i *Instance) Unmount(ctx context.Context) error {
	var err error
	if e := i.Filesystem.Close(); e != nil {
		err = multierr.Append(err, fmt.Errorf("close filesystem: %w", e))
	}
	if e := i.ftl.Deinit(); e != nil {
		err = multierr.Append(err, fmt.Errorf("deinit ftl: %w", e))
	}
	if e := i.dev.Close(); e != nil {
		err = multierr.Append(err, fmt.Errorf("close device: %w", e))
	}

	if err != nil {
		i.log.Errorw("znsfs unmount completed with errors", "error", err)
		return fmt.Errorf("znsfs: unmount: %w", err)
	}

	i.log.Infow("znsfs unmounted")
	return nil
}

// Capacity returns the byte size of the randomly-writable address space
// the mounted FTL presents above the reserved log zones.
func (i *Instance) Capacity() uint64 {
	return i.ftl.Capacity()
}

// StatusOf re-exports errors.StatusOf so callers using only this
// package can classify an error returned from a non-Status-returning
// path (e.g. SequentialFile.Read, WritableFile.Append) without
// importing pkg/errors directly.
func StatusOf(err error) errors.Status {
	return errors.StatusOf(err)
}
