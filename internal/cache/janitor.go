package cache

import "time"

// Cleaner interface for caches that support expiry cleanup
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches for expired entries.
type Janitor struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewJanitor creates an empty janitor; register caches before starting it.
func NewJanitor() *Janitor {
	return &Janitor{
		caches:      make([]Cleaner, 0),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep set
func (j *Janitor) Register(cache Cleaner) {
	j.caches = append(j.caches, cache)
}

// Start begins periodic cleanup of all registered caches
func (j *Janitor) Start(interval time.Duration) {
	go j.sweep(interval)
}

func (j *Janitor) sweep(interval time.Duration) {
	defer close(j.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range j.caches {
				cache.CleanExpired()
			}
		case <-j.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (j *Janitor) Stop() {
	if j.stopCleanup != nil {
		close(j.stopCleanup)
		<-j.cleanupDone
	}
}
