package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// CleanupTotal counts file and directory removals attempted by the lifecycle hooks.
var CleanupTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "phrasebook_media_cleanup_total",
		Help: "Total number of media cleanup operations",
	},
	[]string{"kind", "status"},
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{CleanupTotal}
}

// Record is the media view of a file-bearing row: which root its attachment
// lives under, the name its instance directory is derived from, and the stored
// path (empty when unset).
type Record struct {
	Root Root
	Name string
	File string
}

// Lifecycle removes attachments orphaned by record updates and deletes.
// Cleanup is best effort: failures are logged and never returned.
type Lifecycle struct {
	storage *Storage
	log     logrus.FieldLogger
}

func NewLifecycle(storage *Storage, log logrus.FieldLogger) *Lifecycle {
	if log == nil {
		l := logrus.New()
		l.SetOutput(nopWriter{})
		log = l
	}
	return &Lifecycle{storage: storage, log: log}
}

// OnAfterDelete runs once rec is gone from the database.
func (l *Lifecycle) OnAfterDelete(rec Record) {
	if rec.File == "" || !l.storage.FileExists(rec.File) {
		return
	}
	if !l.removeFile(rec.File) {
		return
	}
	l.removeDir(InstanceDir(rec.Root, rec.Name))
}

// OnBeforeSave runs before an existing record is written with a new state.
// The file referenced by next is never touched.
func (l *Lifecycle) OnBeforeSave(prev, next Record) {
	if prev.File == next.File {
		return
	}
	if prev.File == "" || !l.storage.FileExists(prev.File) {
		return
	}
	if !l.removeFile(prev.File) {
		return
	}
	if next.File == "" {
		l.removeDir(InstanceDir(next.Root, next.Name))
	}
}

func (l *Lifecycle) removeFile(p string) bool {
	if err := l.storage.Remove(p); err != nil {
		CleanupTotal.WithLabelValues("file", "error").Inc()
		l.log.WithError(err).WithField("path", p).Warn("failed to remove media file")
		return false
	}
	CleanupTotal.WithLabelValues("file", "removed").Inc()
	l.log.WithField("path", p).Info("removed media file")
	return true
}

func (l *Lifecycle) removeDir(dir string) {
	removed, err := l.storage.RemoveDirIfEmpty(dir)
	switch {
	case err != nil:
		CleanupTotal.WithLabelValues("dir", "error").Inc()
		l.log.WithError(err).WithField("dir", dir).Warn("failed to remove media directory")
	case removed:
		CleanupTotal.WithLabelValues("dir", "removed").Inc()
		l.log.WithField("dir", dir).Info("removed empty media directory")
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
