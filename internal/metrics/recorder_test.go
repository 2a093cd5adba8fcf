package metrics

import (
	"testing"
	"time"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObservePassDuration("collect_meta", time.Millisecond)
	r.IncPassResult("collect_meta", ResultSuccess)
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.SetCount("pages", 3)
}
