package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/storage"
)

// StateCollector reports stored timelock state on every scrape
type StateCollector struct {
	db *storage.Storage

	lockDuration    *prometheus.Desc
	supportedAssets *prometheus.Desc
	activeVaults    *prometheus.Desc
	lockedAmount    *prometheus.Desc
}

func NewStateCollector(db *storage.Storage) *StateCollector {
	return &StateCollector{
		db: db,
		lockDuration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "lock_duration_seconds"),
			"Default lock duration applied to new locks.", nil, nil),
		supportedAssets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "supported_assets"),
			"Number of assets on the allow-list.", nil, nil),
		activeVaults: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_vaults"),
			"Vaults with a non-zero locked amount.", []string{"asset"}, nil),
		lockedAmount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "locked_amount"),
			"Raw amount held in custody.", []string{"asset"}, nil),
	}
}

func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lockDuration
	ch <- c.supportedAssets
	ch <- c.activeVaults
	ch <- c.lockedAmount
}

func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	err := c.db.View(func(tx *storage.Tx) error {
		settings, err := tx.AdminSettings()
		if err != nil {
			return err
		}
		if settings != nil {
			ch <- prometheus.MustNewConstMetric(c.lockDuration, prometheus.GaugeValue, float64(settings.DefaultLockDuration))
		}

		assets, err := tx.SupportedAssets()
		if err != nil {
			return err
		}
		ch <- prometheus.MustNewConstMetric(c.supportedAssets, prometheus.GaugeValue, float64(len(assets)))

		vaults, err := tx.Vaults(identity.Zero)
		if err != nil {
			return err
		}
		active := make(map[identity.Identity]int)
		locked := make(map[identity.Identity]float64)
		for _, a := range assets {
			active[a.AssetID] = 0
			locked[a.AssetID] = 0
		}
		for _, v := range vaults {
			if v.Dormant() {
				continue
			}
			active[v.AssetID]++
			locked[v.AssetID] += float64(v.LockedAmount)
		}
		for asset, n := range active {
			ch <- prometheus.MustNewConstMetric(c.activeVaults, prometheus.GaugeValue, float64(n), asset.String())
			ch <- prometheus.MustNewConstMetric(c.lockedAmount, prometheus.GaugeValue, locked[asset], asset.String())
		}
		return nil
	})
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.lockDuration, err)
	}
}
