package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"notaryapi/internal/config"
	"notaryapi/internal/service"
	"notaryapi/internal/service/mocks"
)

func TestScheduler_StartStop(t *testing.T) {
	notarSvc := new(mocks.MockNotarizationService)
	paySvc := new(mocks.MockPaymentService)

	sched := New(notarSvc, paySvc, config.SchedulerConfig{
		AutoVerifySpec: "@every 10m",
		ReconcileSpec:  "@every 5m",
	})

	err := sched.Start()
	assert.NoError(t, err)

	sched.Stop()
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	notarSvc := new(mocks.MockNotarizationService)
	paySvc := new(mocks.MockPaymentService)

	sched := New(notarSvc, paySvc, config.SchedulerConfig{
		AutoVerifySpec: "not a cron spec",
		ReconcileSpec:  "@every 5m",
	})

	err := sched.Start()
	assert.Error(t, err)
}

func TestScheduler_RunAutoVerify(t *testing.T) {
	notarSvc := new(mocks.MockNotarizationService)
	paySvc := new(mocks.MockPaymentService)
	notarSvc.On("AutoVerify", mock.Anything).Return(3, nil)

	sched := New(notarSvc, paySvc, config.SchedulerConfig{})
	sched.runAutoVerify()

	notarSvc.AssertExpectations(t)
}

func TestScheduler_RunReconcile(t *testing.T) {
	notarSvc := new(mocks.MockNotarizationService)
	paySvc := new(mocks.MockPaymentService)
	paySvc.On("ReconcileAll", mock.Anything).
		Return(&service.ReconcileStats{Total: 4, Processed: 1, Skipped: 2, Failed: 1}, nil)

	sched := New(notarSvc, paySvc, config.SchedulerConfig{})
	sched.runReconcile()

	paySvc.AssertExpectations(t)
}
