package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskPoolRelease returns a stale lead to the pool.
const TaskPoolRelease = "leads.pool.release"

// PoolReleasePayload carries what the sweeper observed, so the worker can
// re-check it under the row lock.
type PoolReleasePayload struct {
	LeadID   string    `json:"leadId"`
	TenantID string    `json:"tenantId"`
	OwnerID  string    `json:"ownerId"`
	Cutoff   time.Time `json:"cutoff"`
	Days     int       `json:"days"`
}

func NewPoolReleaseTask(payload PoolReleasePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPoolRelease, data), nil
}

func ParsePoolReleasePayload(task *asynq.Task) (PoolReleasePayload, error) {
	var payload PoolReleasePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PoolReleasePayload{}, err
	}
	return payload, nil
}

// PoolReleaseTaskID allows one release task per lead per UTC day.
func PoolReleaseTaskID(leadID string, at time.Time) string {
	return "pool-release:" + leadID + ":" + at.UTC().Format("20060102")
}
