package filesystem

import "time"

// gcScanLoop is the background idle-segment compaction scan: every
// GCScanInterval, any segment that has gone untouched for at least
// GCIdleThreshold and has no room left for another inode is submitted
// to the worker pool for an OnGC compaction pass.
func (fs *Filesystem) gcScanLoop() {
	defer close(fs.scanDone)

	ticker := time.NewTicker(fs.cfg.GCScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stopScan:
			return
		case <-ticker.C:
			fs.scanIdleSegments()
		}
	}
}

// scanIdleSegments submits one OnGC task per full, idle segment to the
// worker pool. Submission errors (pool closed mid-scan) are logged, not
// propagated: a missed compaction simply retries on the next tick.
func (fs *Filesystem) scanIdleSegments() {
	now := time.Now()
	patch := &neighborPatcher{fs: fs}

	for _, seg := range fs.order {
		if seg.HasRoom() {
			continue
		}
		if now.Sub(seg.LastModify()) < fs.cfg.GCIdleThreshold {
			continue
		}

		seg := seg
		err := fs.cfg.Pool.Submit(func() {
			fs.gcMu.Lock()
			defer fs.gcMu.Unlock()
			if err := seg.OnGC(patch); err != nil {
				fs.log.Errorw("filesystem: background segment gc failed", "segment", seg.Index(), "error", err)
			}
		})
		if err != nil {
			fs.log.Warnw("filesystem: failed to submit background segment gc", "segment", seg.Index(), "error", err)
		}
	}
}
