// Package jobs holds the background task definitions and the Asynq
// worker bootstrap.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPayrollCompute retries a payroll derivation that failed at
	// check-out time.
	TaskPayrollCompute = "payroll:compute"
	// TaskInternalRollforward opens the next monthly payroll period for
	// internal employees. Scheduled daily.
	TaskInternalRollforward = "payroll:rollforward"
)

// PayrollComputePayload identifies the attendance to derive payroll for.
type PayrollComputePayload struct {
	AttendanceID int64 `json:"attendance_id"`
}

// NewPayrollComputeTask constructs the retry task for one attendance.
func NewPayrollComputeTask(attendanceID int64) (*asynq.Task, error) {
	data, err := json.Marshal(PayrollComputePayload{AttendanceID: attendanceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayrollCompute, data, asynq.Queue(QueueDefault)), nil
}

// NewInternalRollforwardTask constructs the daily roll-forward task.
func NewInternalRollforwardTask() *asynq.Task {
	return asynq.NewTask(TaskInternalRollforward, nil, asynq.Queue(QueueDefault))
}

// Enqueuer submits tasks through an Asynq client. It satisfies the
// attendance service's retry port.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer builds Enqueuer.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueuePayrollCompute schedules a deferred payroll computation.
func (e *Enqueuer) EnqueuePayrollCompute(ctx context.Context, attendanceID int64) error {
	task, err := NewPayrollComputeTask(attendanceID)
	if err != nil {
		return fmt.Errorf("build payroll compute task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue payroll compute: %w", err)
	}
	return nil
}
