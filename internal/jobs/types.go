package jobs

const TaskWarm = "fetch:warm"

// QueueWarm is the asynq queue warm tasks are sent to.
const QueueWarm = "warm"

type WarmPayload struct {
	Resource string `json:"resource"`
	TTLMs    int64  `json:"ttl_ms,omitempty"`
	Mode     string `json:"mode,omitempty"`
}
