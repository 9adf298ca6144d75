package camunda

import (
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"montaz-workers/internal/common/metrics"
)

func TestWrap_RecoversFromPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	before := testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues("wrap-test", "PANIC"))

	handler := wrap("wrap-test", func(worker.JobClient, entities.Job) {
		panic("boom")
	}, nil, zap.New(core))

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: "wrap-test"}}
	assert.NotPanics(t, func() { handler(nil, job) })

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues("wrap-test", "PANIC")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("wrap-test")))
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, int64(7), logs.All()[0].ContextMap()["jobKey"])
	}
}

func TestWrap_CallsHandler(t *testing.T) {
	called := false
	handler := wrap("wrap-test-ok", func(_ worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, int64(9), job.Key)
	}, nil, zap.NewNop())

	handler(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 9}})
	assert.True(t, called)
}
