package protocol

import (
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// EventTypeTransaction marks performance events that must carry a valid
// time span.
const EventTypeTransaction = "transaction"

// Event is the root of every payload accepted by the relay.
type Event struct {
	EventID        types.Annotated[string]
	Type           types.Annotated[string]
	Timestamp      types.Annotated[float64]
	StartTimestamp types.Annotated[float64]
	Platform       types.Annotated[string]
	Level          types.Annotated[string]
	Logger         types.Annotated[string]
	Release        types.Annotated[string]
	Environment    types.Annotated[string]
	Message        types.Annotated[string]
	User           types.Annotated[User]
	Request        types.Annotated[Request]
	Tags           types.Annotated[types.PairList]
	Extra          types.Annotated[types.Object[types.Value]]
	Breadcrumbs    types.Annotated[Breadcrumbs]

	// Other holds keys the schema does not declare.
	Other types.Object[types.Value]
}

// EventAttrs are the attributes of the event root.
var EventAttrs = processor.FieldAttrs{Name: "event"}

var (
	eventIDAttrs        = processor.FieldAttrs{Name: "event_id", MaxChars: 36, Characters: processor.IdentifierChars, TrimWhitespace: true}
	eventTypeAttrs      = processor.FieldAttrs{Name: "type", MaxChars: 64, TrimWhitespace: true}
	timestampAttrs      = processor.FieldAttrs{Name: "timestamp"}
	startTimestampAttrs = processor.FieldAttrs{Name: "start_timestamp"}
	platformAttrs       = processor.FieldAttrs{Name: "platform", MaxChars: 64, TrimWhitespace: true}
	levelAttrs          = processor.FieldAttrs{Name: "level", MaxChars: 16, TrimWhitespace: true}
	loggerAttrs         = processor.FieldAttrs{Name: "logger", MaxChars: 64, TrimWhitespace: true}
	releaseAttrs        = processor.FieldAttrs{Name: "release", MaxChars: 200, NonEmpty: true, TrimWhitespace: true, Characters: processor.ReleaseChars}
	environmentAttrs    = processor.FieldAttrs{Name: "environment", MaxChars: 64, NonEmpty: true, TrimWhitespace: true, Characters: processor.ReleaseChars}
	messageAttrs        = processor.FieldAttrs{Name: "message", MaxChars: 8192, Pii: true}
	userAttrs           = processor.FieldAttrs{Name: "user", Pii: true}
	requestAttrs        = processor.FieldAttrs{Name: "request", DenyUnknown: true}
	tagsAttrs           = processor.FieldAttrs{Name: "tags", MaxItems: 200, Pii: true}
	extraAttrs          = processor.FieldAttrs{Name: "extra", Pii: true}
	breadcrumbsAttrs    = processor.FieldAttrs{Name: "breadcrumbs"}
)

// ValueType implements processor.Traversable.
func (e *Event) ValueType() processor.ValueType {
	return processor.TypeEvent | processor.TypeObject
}

// ProcessChildren implements processor.Traversable.
func (e *Event) ProcessChildren(p processor.Processor, state *processor.ProcessingState) error {
	if err := processor.ProcessField(&e.EventID, p, state, "event_id", &eventIDAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Type, p, state, "type", &eventTypeAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Timestamp, p, state, "timestamp", &timestampAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.StartTimestamp, p, state, "start_timestamp", &startTimestampAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Platform, p, state, "platform", &platformAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Level, p, state, "level", &levelAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Logger, p, state, "logger", &loggerAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Release, p, state, "release", &releaseAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Environment, p, state, "environment", &environmentAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Message, p, state, "message", &messageAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.User, p, state, "user", &userAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Request, p, state, "request", &requestAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Tags, p, state, "tags", &tagsAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Extra, p, state, "extra", &extraAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&e.Breadcrumbs, p, state, "breadcrumbs", &breadcrumbsAttrs); err != nil {
		return err
	}
	return processor.ProcessOther(&e.Other, p, state)
}

// IsTransaction reports whether the event is a transaction.
func (e *Event) IsTransaction() bool {
	t, ok := e.Type.Get()
	return ok && t == EventTypeTransaction
}

// EventFromValue builds a typed event from an untyped payload. Fields of the
// wrong shape are kept as absent values with an invalid_data error; unknown
// keys are kept in Other.
func EventFromValue(a types.Annotated[types.Value]) types.Annotated[Event] {
	return asStruct(a, "an event object", eventFromObject)
}

func eventFromObject(obj *types.Object[types.Value]) Event {
	e := Event{
		EventID:        asString(take(obj, "event_id")),
		Type:           asString(take(obj, "type")),
		Timestamp:      asTimestamp(take(obj, "timestamp")),
		StartTimestamp: asTimestamp(take(obj, "start_timestamp")),
		Platform:       asString(take(obj, "platform")),
		Level:          asString(take(obj, "level")),
		Logger:         asString(take(obj, "logger")),
		Release:        asString(take(obj, "release")),
		Environment:    asString(take(obj, "environment")),
		Message:        asString(take(obj, "message")),
		User:           asStruct(take(obj, "user"), "a user object", userFromObject),
		Request:        asStruct(take(obj, "request"), "a request object", requestFromObject),
		Tags:           asPairList(take(obj, "tags"), pairsNone),
		Extra:          asObject(take(obj, "extra")),
		Breadcrumbs:    asBreadcrumbs(take(obj, "breadcrumbs")),
	}
	e.Other = *obj
	return e
}

// ToValue converts the event back into an untyped payload. Declared fields
// come first in schema order, followed by unknown keys.
func (e *Event) ToValue() types.Value {
	obj := types.NewObject[types.Value]()
	put(obj, "event_id", liftString(e.EventID))
	put(obj, "type", liftString(e.Type))
	put(obj, "timestamp", liftFloat(e.Timestamp))
	put(obj, "start_timestamp", liftFloat(e.StartTimestamp))
	put(obj, "platform", liftString(e.Platform))
	put(obj, "level", liftString(e.Level))
	put(obj, "logger", liftString(e.Logger))
	put(obj, "release", liftString(e.Release))
	put(obj, "environment", liftString(e.Environment))
	put(obj, "message", liftString(e.Message))
	put(obj, "user", lift(e.User, func(u User) types.Value { return u.ToValue() }))
	put(obj, "request", lift(e.Request, func(r Request) types.Value { return r.ToValue() }))
	put(obj, "tags", liftPairList(e.Tags))
	put(obj, "extra", liftObject(e.Extra))
	put(obj, "breadcrumbs", lift(e.Breadcrumbs, func(b Breadcrumbs) types.Value { return b.ToValue() }))
	appendOther(obj, &e.Other)
	return types.ObjectValue(obj)
}

// EventToValue converts an annotated event into an annotated payload.
func EventToValue(a types.Annotated[Event]) types.Annotated[types.Value] {
	return lift(a, func(e Event) types.Value { return e.ToValue() })
}
