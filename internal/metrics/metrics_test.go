package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"UploadsTotal", UploadsTotal},
		{"DecodeFailuresTotal", DecodeFailuresTotal},
		{"FoldersTotal", FoldersTotal},
		{"ImagesTotal", ImagesTotal},
		{"ProcessingTransitions", ProcessingTransitions},
		{"ProcessingDuration", ProcessingDuration},
		{"ProcessingInFlight", ProcessingInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"ThumbnailGenerationsTotal", ThumbnailGenerationsTotal},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsRegistersLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(DecodeFailuresTotal); n < 5 {
		t.Errorf("expected at least 5 decode failure series, got %d", n)
	}
	if n := testutil.CollectAndCount(ProcessingTransitions); n < 3 {
		t.Errorf("expected at least 3 transition series, got %d", n)
	}
	if n := testutil.CollectAndCount(DBQueryTotal); n < 6 {
		t.Errorf("expected at least 6 db query series, got %d", n)
	}
}
