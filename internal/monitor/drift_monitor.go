package monitor

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/drift"
	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/pkg/constants"
	"github.com/inferstack/mlserve/pkg/models"
)

// MonitorConfig controls check cadence and alert thresholds.
type MonitorConfig struct {
	TickInterval      time.Duration `json:"tick_interval"`
	CheckInterval     time.Duration `json:"check_interval"`
	WindowSize        int           `json:"window_size"`
	PSIThreshold      float64       `json:"psi_threshold"`
	KSPValueThreshold float64       `json:"ks_pvalue_threshold"`
}

// DefaultMonitorConfig returns the standard cadence: a 60s tick, hourly
// checks, and a 1000-event window.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TickInterval:      time.Minute,
		CheckInterval:     time.Duration(constants.DefaultDriftCheckInterval) * time.Second,
		WindowSize:        constants.DefaultDriftWindowSize,
		PSIThreshold:      constants.DefaultPSIThreshold,
		KSPValueThreshold: constants.DefaultKSThreshold,
	}
}

// DriftMonitor runs the background loop that periodically scores buffered
// traffic against the active model's baseline. Start and Stop are
// idempotent; UpdateBaseline may be called while the loop is running and
// takes effect on the next check.
type DriftMonitor struct {
	config MonitorConfig
	buffer *PredictionBuffer
	logger *logrus.Logger

	mu           sync.Mutex
	detector     *drift.Detector
	modelVersion string
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup

	lastCheckAt    time.Time
	totalAtLastChk uint64
}

// NewDriftMonitor creates a stopped monitor. A detector is installed via
// UpdateBaseline once a model is loaded; checks are skipped until then.
func NewDriftMonitor(config MonitorConfig, buffer *PredictionBuffer, logger *logrus.Logger) *DriftMonitor {
	if logger == nil {
		logger = logrus.New()
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Minute
	}
	if config.WindowSize <= 0 {
		config.WindowSize = constants.DefaultDriftWindowSize
	}
	return &DriftMonitor{
		config: config,
		buffer: buffer,
		logger: logger,
	}
}

// UpdateBaseline swaps the baseline the monitor scores against. Safe to call
// concurrently with the loop; the new detector is used for the next check.
func (m *DriftMonitor) UpdateBaseline(baseline *models.Baseline, modelVersion string) {
	detector := drift.NewDetector(baseline, drift.DefaultConfig(), m.logger)

	m.mu.Lock()
	m.detector = detector
	m.modelVersion = modelVersion
	m.mu.Unlock()

	m.logger.WithField("model_version", modelVersion).Info("Drift monitor baseline updated")
}

// Start launches the monitoring loop. Calling Start on a running monitor is
// a no-op.
func (m *DriftMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.lastCheckAt = time.Now()
	m.totalAtLastChk = m.buffer.TotalAppended()
	stopCh := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(ctx, stopCh)

	m.logger.WithFields(logrus.Fields{
		"tick_interval":  m.config.TickInterval,
		"check_interval": m.config.CheckInterval,
		"window_size":    m.config.WindowSize,
	}).Info("Drift monitor started")
}

// Stop signals the loop to exit and waits for it. Safe to call multiple
// times and on a monitor that was never started.
func (m *DriftMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Drift monitor stopped")
}

// Running reports whether the background loop is active.
func (m *DriftMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *DriftMonitor) loop(ctx context.Context, stopCh chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *DriftMonitor) tick() {
	stats := m.buffer.Statistics()
	observability.PredictionBufferSize.Set(float64(stats.Count))
	observability.PredictionBufferUtilization.Set(stats.Utilization)

	if !m.shouldCheck(stats.Count) {
		return
	}
	m.RunCheck()
}

// shouldCheck fires when either enough time has elapsed or enough new events
// have arrived since the last check, and the buffer holds at least one full
// window. A check never fires on an under-filled buffer.
func (m *DriftMonitor) shouldCheck(buffered int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if buffered < m.config.WindowSize {
		return false
	}
	elapsed := time.Since(m.lastCheckAt) >= m.config.CheckInterval
	accumulated := m.buffer.TotalAppended()-m.totalAtLastChk >= uint64(m.config.WindowSize)
	return elapsed || accumulated
}

// RunCheck performs one drift check over the most recent window. A failure
// inside a check is logged and contained; it never stops the loop.
func (m *DriftMonitor) RunCheck() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("Drift check failed")
		}
	}()

	m.mu.Lock()
	detector := m.detector
	version := m.modelVersion
	if detector == nil {
		m.mu.Unlock()
		m.logger.Debug("Drift check skipped: no baseline loaded")
		return
	}
	// Commit the fire state only when a check actually runs, so a check
	// skipped for a missing baseline does not defer the first real one.
	m.lastCheckAt = time.Now()
	m.totalAtLastChk = m.buffer.TotalAppended()
	m.mu.Unlock()

	start := time.Now()
	events := m.buffer.Snapshot(m.config.WindowSize)
	dataset, predictions := buildSample(events)

	featureResults := detector.DetectFeatureDrift(dataset)
	for name, result := range featureResults {
		observability.DriftScore.WithLabelValues(version, name, "psi").Set(result.PSI)
		observability.DriftScore.WithLabelValues(version, name, "ks_statistic").Set(result.KSStatistic)
		observability.DriftScore.WithLabelValues(version, name, "mean_shift").Set(result.MeanShift)

		if result.PSI >= m.config.PSIThreshold {
			m.alert(version, name, "psi", result.PSI)
		}
		if result.KSPValue < m.config.KSPValueThreshold {
			m.alert(version, name, "ks", result.KSPValue)
		}
	}

	if predResult := detector.DetectPredictionDrift(predictions); predResult != nil {
		observability.DriftScore.WithLabelValues(version, "__prediction__", "psi").Set(predResult.PSI)
		observability.DriftScore.WithLabelValues(version, "__prediction__", "ks_statistic").Set(predResult.KSStatistic)
		if predResult.PSI >= m.config.PSIThreshold {
			m.alert(version, "__prediction__", "psi", predResult.PSI)
		}
		if predResult.KSPValue < m.config.KSPValueThreshold {
			m.alert(version, "__prediction__", "ks", predResult.KSPValue)
		}
	}

	duration := time.Since(start)
	observability.DriftCheckDurationSeconds.Observe(duration.Seconds())

	m.logger.WithFields(logrus.Fields{
		"model_version":   version,
		"window_size":     len(events),
		"features_scored": len(featureResults),
		"duration":        duration,
	}).Info("Drift check completed")
}

func (m *DriftMonitor) alert(version, feature, driftType string, score float64) {
	observability.DriftAlertsTotal.WithLabelValues(version, feature, driftType).Inc()
	m.logger.WithFields(logrus.Fields{
		"model_version": version,
		"feature":       feature,
		"drift_type":    driftType,
		"score":         score,
	}).Warn("Drift alert")
}

// buildSample converts buffered events into a column-oriented dataset plus
// the prediction probability series. Features missing from an individual
// event are recorded as missing values, not zeros.
func buildSample(events []models.PredictionEvent) (*models.Dataset, []float64) {
	nameSet := make(map[string]struct{})
	for _, e := range events {
		for name := range e.Features {
			nameSet[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]models.Column, 0, len(names))
	for _, name := range names {
		values := make([]float64, len(events))
		for i, e := range events {
			if v, ok := e.Features[name]; ok {
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		columns = append(columns, models.NumericColumn(name, values))
	}

	predictions := make([]float64, len(events))
	for i, e := range events {
		predictions[i] = e.Prediction
	}
	return &models.Dataset{Columns: columns}, predictions
}
