package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterStoreMetrics_Twice(t *testing.T) {
	RegisterStoreMetrics()
	RegisterStoreMetrics()
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("get", "tags", "error"))
	ObserveOperation("get", "tags", time.Millisecond, errors.New("boom"))
	ObserveOperation("get", "tags", time.Millisecond, nil)

	if got := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("get", "tags", "error")); got != before+1 {
		t.Errorf("error count = %f, want %f", got, before+1)
	}
	if got := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("get", "tags", "ok")); got < 1 {
		t.Errorf("ok count = %f, want >= 1", got)
	}
}

func TestObservePersist(t *testing.T) {
	before := testutil.ToFloat64(PersistTotal.WithLabelValues("ok"))
	ObservePersist(time.Millisecond, nil)
	if got := testutil.ToFloat64(PersistTotal.WithLabelValues("ok")); got != before+1 {
		t.Errorf("persist ok = %f, want %f", got, before+1)
	}
}

func TestSetAndDeleteRecords(t *testing.T) {
	SetRecords("comments", 5)
	SetRecords("albums", 2)
	if got := testutil.ToFloat64(StoreRecords.WithLabelValues("comments")); got != 5 {
		t.Errorf("records = %f, want 5", got)
	}
	DeleteRecords("comments")
	if got := testutil.ToFloat64(StoreRecords.WithLabelValues("albums")); got != 2 {
		t.Errorf("albums = %f, want 2 after deleting another resource", got)
	}
	DeleteRecords("albums")
	if got := testutil.CollectAndCount(StoreRecords); got != 0 {
		t.Errorf("series after delete = %d, want 0", got)
	}
}
