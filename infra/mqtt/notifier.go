package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/infra/logger"
)

// DefaultTopicPrefix roots every notification topic.
const DefaultTopicPrefix = "fieldsched"

// PlanMessage is the JSON body sent on <prefix>/plan/<date>.
type PlanMessage struct {
	MessageID string           `json:"message_id"`
	SentAt    time.Time        `json:"sent_at"`
	Plan      events.PlanEvent `json:"plan"`
	Error     string           `json:"error,omitempty"`
}

// ConflictMessage is the JSON body sent on <prefix>/conflicts/<date>.
type ConflictMessage struct {
	MessageID string         `json:"message_id"`
	SentAt    time.Time      `json:"sent_at"`
	PlanID    string         `json:"plan_id"`
	Date      string         `json:"date"`
	Conflict  model.Conflict `json:"conflict"`
}

// Notifier forwards plan completions and critical conflicts to the broker.
type Notifier struct {
	pub    Publisher
	prefix string
	log    logger.Logger
	now    func() time.Time
}

// NewNotifier publishes through pub under prefix. An empty prefix uses
// DefaultTopicPrefix.
func NewNotifier(pub Publisher, prefix string, log logger.Logger) *Notifier {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Notifier{pub: pub, prefix: prefix, log: log, now: time.Now}
}

// PlanTopic returns the topic plan messages for date go to.
func (n *Notifier) PlanTopic(date string) string { return n.prefix + "/plan/" + date }

// ConflictTopic returns the topic conflict messages for date go to.
func (n *Notifier) ConflictTopic(date string) string { return n.prefix + "/conflicts/" + date }

func (n *Notifier) NotifyPlan(ctx context.Context, ev events.PlanEvent) error {
	msg := PlanMessage{MessageID: uuid.NewString(), SentAt: n.now().UTC(), Plan: ev}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return n.send(ctx, n.PlanTopic(ev.Date), msg)
}

func (n *Notifier) NotifyConflict(ctx context.Context, ev events.ConflictEvent) error {
	msg := ConflictMessage{
		MessageID: uuid.NewString(),
		SentAt:    n.now().UTC(),
		PlanID:    ev.PlanID,
		Date:      ev.Date,
		Conflict:  ev.Conflict,
	}
	return n.send(ctx, n.ConflictTopic(ev.Date), msg)
}

func (n *Notifier) send(ctx context.Context, topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := n.pub.Publish(ctx, topic, payload); err != nil {
		n.log.Errorf("notify %s: %v", topic, err)
		return err
	}
	return nil
}

// Run forwards events until ctx is done or both channels are closed.
// Publish failures are logged and do not stop the loop.
func (n *Notifier) Run(ctx context.Context, plans <-chan events.PlanEvent, conflicts <-chan events.ConflictEvent) {
	for plans != nil || conflicts != nil {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-plans:
			if !ok {
				plans = nil
				continue
			}
			_ = n.NotifyPlan(ctx, ev)
		case ev, ok := <-conflicts:
			if !ok {
				conflicts = nil
				continue
			}
			_ = n.NotifyConflict(ctx, ev)
		}
	}
}
