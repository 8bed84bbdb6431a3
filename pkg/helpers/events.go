package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/jakehl/goid"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

func BuildCloudEvent(ctx context.Context, payload interface{}) event.Event {
	event := cloudevents.NewEvent()

	event.SetSpecVersion("1.0")
	event.SetTime(time.Now())
	event.SetID(goid.NewV4UUID().String())
	event.SetData(cloudevents.ApplicationJSON, payload)

	if eventSource, ok := ctx.Value(CtxEventSource).(string); ok {
		event.SetSource(fmt.Sprintf("source://%s", eventSource))
	} else {
		event.SetSource("source://unknown")
	}

	if eventType, ok := ctx.Value(CtxEventType).(string); ok {
		event.SetType(eventType)
	} else if typedEventType, ok := ctx.Value(CtxEventType).(models.EventType); ok {
		event.SetType(string(typedEventType))
	}

	if eventSubject, ok := ctx.Value(CtxEventSubject).(string); ok {
		event.SetSubject(eventSubject)
	}

	return event
}

func ParseCloudEvent(msg []byte) (*event.Event, error) {
	var event cloudevents.Event
	err := json.Unmarshal(msg, &event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}
