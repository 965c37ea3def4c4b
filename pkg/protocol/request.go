package protocol

import (
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// Request describes the HTTP request that triggered an event. Unknown keys
// are not accepted.
type Request struct {
	URL         types.Annotated[string]
	Method      types.Annotated[string]
	QueryString types.Annotated[types.PairList]
	Cookies     types.Annotated[types.PairList]
	Headers     types.Annotated[types.PairList]
	Data        types.Annotated[types.Value]
	Env         types.Annotated[types.Object[types.Value]]
	Other       types.Object[types.Value]
}

var (
	requestURLAttrs     = processor.FieldAttrs{Name: "url", MaxChars: 256, Pii: true}
	requestMethodAttrs  = processor.FieldAttrs{Name: "method", MaxChars: 32, TrimWhitespace: true, Characters: processor.IdentifierChars}
	requestQueryAttrs   = processor.FieldAttrs{Name: "query_string", Pii: true}
	requestCookieAttrs  = processor.FieldAttrs{Name: "cookies", Pii: true}
	requestHeadersAttrs = processor.FieldAttrs{Name: "headers", Pii: true}
	requestDataAttrs    = processor.FieldAttrs{Name: "data", Pii: true}
	requestEnvAttrs     = processor.FieldAttrs{Name: "env", Pii: true}
)

// ValueType implements processor.Traversable.
func (r *Request) ValueType() processor.ValueType {
	return processor.TypeRequest | processor.TypeObject
}

// ProcessChildren implements processor.Traversable.
func (r *Request) ProcessChildren(p processor.Processor, state *processor.ProcessingState) error {
	if err := processor.ProcessField(&r.URL, p, state, "url", &requestURLAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.Method, p, state, "method", &requestMethodAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.QueryString, p, state, "query_string", &requestQueryAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.Cookies, p, state, "cookies", &requestCookieAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.Headers, p, state, "headers", &requestHeadersAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.Data, p, state, "data", &requestDataAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&r.Env, p, state, "env", &requestEnvAttrs); err != nil {
		return err
	}
	return processor.ProcessOther(&r.Other, p, state)
}

func requestFromObject(obj *types.Object[types.Value]) Request {
	r := Request{
		URL:         asString(take(obj, "url")),
		Method:      asString(take(obj, "method")),
		QueryString: asPairList(take(obj, "query_string"), pairsQuery),
		Cookies:     asPairList(take(obj, "cookies"), pairsCookie),
		Headers:     asPairList(take(obj, "headers"), pairsNone),
		Data:        take(obj, "data"),
		Env:         asObject(take(obj, "env")),
	}
	r.Other = *obj
	return r
}

// ToValue converts the request into an untyped object.
func (r *Request) ToValue() types.Value {
	obj := types.NewObject[types.Value]()
	put(obj, "url", liftString(r.URL))
	put(obj, "method", liftString(r.Method))
	put(obj, "query_string", liftPairList(r.QueryString))
	put(obj, "cookies", liftPairList(r.Cookies))
	put(obj, "headers", liftPairList(r.Headers))
	put(obj, "data", r.Data)
	put(obj, "env", liftObject(r.Env))
	appendOther(obj, &r.Other)
	return types.ObjectValue(obj)
}
