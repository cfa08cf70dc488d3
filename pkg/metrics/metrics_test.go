package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered there", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)

				manager.resolverHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["gamestore_catalog_resolver_hits_total"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("shop"),
				WithMetricsEnabled(false),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and settings follow the options", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)

				manager.assetsTotal.Set(4)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "shop_catalog_assets" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options carry zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "gamestore")
				So(manager.subsystem, ShouldEqual, "catalog")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.customLabels, ShouldBeEmpty)
			})
		})
	})
}

func TestPackageRecorders(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording resolver outcomes", func() {
			hits := testutil.ToFloat64(globalManager.resolverHits)
			misses := testutil.ToFloat64(globalManager.resolverMisses)
			RecordResolverHits(2)
			RecordResolverMisses(1)
			RecordResolverMisses(0)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.resolverHits), ShouldEqual, hits+2)
				So(testutil.ToFloat64(globalManager.resolverMisses), ShouldEqual, misses+1)
			})
		})

		Convey("When recording preload completions", func() {
			loaded := testutil.ToFloat64(globalManager.preloadLoaded)
			failed := testutil.ToFloat64(globalManager.preloadFailed)
			RecordPreloadDone(false, 2)
			RecordPreloadDone(true, 3)
			UpdatePreloadTotal(2, 1)

			Convey("Then failures still count as loaded", func() {
				So(testutil.ToFloat64(globalManager.preloadLoaded), ShouldEqual, loaded+2)
				So(testutil.ToFloat64(globalManager.preloadFailed), ShouldEqual, failed+1)
				So(testutil.ToFloat64(globalManager.preloadTotal), ShouldEqual, 2.0)
				So(testutil.ToFloat64(globalManager.preloadGeneration), ShouldEqual, 1.0)
			})
		})

		Convey("When updating gauges", func() {
			UpdateCatalogRecords(12)
			UpdateCatalogResolved(7)
			UpdateAssetsTotal(9)
			UpdatePreloadQueueSize(3)
			UpdatePreloadWorkers(4)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.catalogRecords), ShouldEqual, 12.0)
				So(testutil.ToFloat64(globalManager.catalogResolved), ShouldEqual, 7.0)
				So(testutil.ToFloat64(globalManager.assetsTotal), ShouldEqual, 9.0)
				So(testutil.ToFloat64(globalManager.preloadQueueSize), ShouldEqual, 3.0)
				So(testutil.ToFloat64(globalManager.preloadWorkers), ShouldEqual, 4.0)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordStoreQueryLatency(1.5)
					RecordStoreError()
					RecordIndexRebuild()
					RecordAssetListError()
					RecordPreloadDropped("queue_full")
					RecordHTTPRequest("/api/games", "GET", "200")
					RecordHTTPRequestDuration("/api/games", "GET", "200", 4)
					RecordErrorByEndpoint("/api/games", "GET", "server_error")
					RecordErrorByComponent("http", "server_error")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global manager is reconfigured", t, func() {
		Configure(
			WithNamespace("store"),
			WithRefreshInterval(2*time.Second),
			WithCustomLabels(map[string]string{"env": "staging"}),
		)
		defer Configure()

		Convey("Then recorders write to the new registry under the new names", func() {
			So(RefreshInterval(), ShouldEqual, 2*time.Second)
			UpdateAssetsTotal(7)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			var value float64
			for _, f := range families {
				if f.GetName() == "store_catalog_assets" {
					value = f.GetMetric()[0].GetGauge().GetValue()
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "staging")
				}
			}
			So(value, ShouldEqual, 7)
		})

		Convey("And a disabled manager records nothing", func() {
			Configure(WithMetricsEnabled(false))
			UpdateAssetsTotal(9)
			So(testutil.ToFloat64(globalManager.assetsTotal), ShouldEqual, 0)
		})
	})

	Convey("Given the defaults are restored", t, func() {
		Configure()

		Convey("Then the default interval applies", func() {
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
