package service

import (
	"time"

	"github.com/okian/gamestore/internal/adapters/mq/worker"
	"github.com/okian/gamestore/internal/domain/catalog"
	"github.com/okian/gamestore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the record source.
func WithStore(store RecordStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLister sets the asset lister.
func WithLister(l AssetLister) Option {
	return func(s *Service) {
		if l != nil {
			s.lister = l
		}
	}
}

// WithLoader sets the loader used by the preload workers.
func WithLoader(l worker.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithResolver overrides the name resolver.
func WithResolver(r catalog.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithPageSize sets the catalog page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithAssetPrefix sets the public URL prefix for asset links.
func WithAssetPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.assetPrefix = prefix
		}
	}
}

// WithWorkerCount sets the number of preload workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the preload queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWatch rebuilds the name index whenever dir changes.
func WithWatch(dir string, debounce time.Duration) Option {
	return func(s *Service) {
		s.watchDir = dir
		s.watchDebounce = debounce
	}
}
