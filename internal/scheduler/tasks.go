package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEscalationFollowUp = "escalation.followup"

type EscalationFollowUpPayload struct {
	SessionID string `json:"sessionId"`
}

func NewEscalationFollowUpTask(payload EscalationFollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEscalationFollowUp, data), nil
}

func ParseEscalationFollowUpPayload(task *asynq.Task) (EscalationFollowUpPayload, error) {
	var payload EscalationFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EscalationFollowUpPayload{}, err
	}
	return payload, nil
}
