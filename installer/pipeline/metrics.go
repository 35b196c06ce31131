package pipeline

import (
	"sync"
	"time"

	"github.com/Cloud-Foundations/tricorder/go/tricorder"
	"github.com/Cloud-Foundations/tricorder/go/tricorder/units"
	"github.com/stormos/installer/installer/copier"
	proto "github.com/stormos/installer/proto/installer"
)

var (
	metricsOnce        sync.Once
	stageDistributions = make(map[proto.Stage]*tricorder.CumulativeDistribution)

	metricsMutex  sync.Mutex
	lastStage     proto.Stage
	lastSuccess   bool
	lastCopyStats copier.Stats
	numRuns       uint64
)

var instrumentedStages = []proto.Stage{
	proto.StageDeviceInventory,
	proto.StagePartitionExecutor,
	proto.StageFilesystem,
	proto.StageTreeCopier,
	proto.StageSystemFinalizer,
	proto.StageModuleRunner,
}

func registerMetrics() {
	metricsOnce.Do(func() {
		dir, err := tricorder.RegisterDirectory("installer")
		if err != nil {
			panic(err)
		}
		bucketer := tricorder.NewGeometricBucketer(0.1, 1e6)
		for _, stage := range instrumentedStages {
			distribution := bucketer.NewCumulativeDistribution()
			err := dir.RegisterMetric("stage/"+stage.String()+"-time",
				distribution, units.Millisecond,
				"time spent in "+stage.String())
			if err != nil {
				panic(err)
			}
			stageDistributions[stage] = distribution
		}
		register := func(name string, metric interface{}, unit units.Unit,
			description string) {
			if err := dir.RegisterMetric(name, metric, unit,
				description); err != nil {
				panic(err)
			}
		}
		register("last-stage", func() string {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return lastStage.String()
		}, units.None, "last stage reached")
		register("last-success", func() bool {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return lastSuccess
		}, units.None, "true if the last installation succeeded")
		register("runs", func() uint64 {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return numRuns
		}, units.None, "number of installations started")
		register("copier/files", func() uint64 {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return lastCopyStats.Files
		}, units.None, "files copied by the last installation")
		register("copier/bytes", func() uint64 {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return lastCopyStats.BytesCopied
		}, units.Byte, "bytes copied by the last installation")
		register("copier/unchanged", func() uint64 {
			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			return lastCopyStats.Unchanged
		}, units.None, "files already up to date")
	})
}

func recordCopyStats(stats copier.Stats) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	lastCopyStats = stats
}

func recordResult(result *proto.InstallResult) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	lastStage = result.Stage
	lastSuccess = result.Success
}

func recordRunStart() {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	numRuns++
}

func recordStageTime(stage proto.Stage, duration time.Duration) {
	if distribution := stageDistributions[stage]; distribution != nil {
		distribution.Add(duration)
	}
}
