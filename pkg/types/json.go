package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MetaKey is the top-level payload key holding the meta tree.
const MetaKey = "_meta"

// DefaultMaxParseDepth bounds nesting accepted by ParseJSON.
const DefaultMaxParseDepth = 1024

// metaKeyEscape prefixes child keys of the meta tree that are empty or
// already start with it, so they never collide with the node's own "" entry.
const metaKeyEscape = "~"

func escapeMetaKey(key string) string {
	if key == "" || strings.HasPrefix(key, metaKeyEscape) {
		return metaKeyEscape + key
	}
	return key
}

func unescapeMetaKey(key string) string {
	return strings.TrimPrefix(key, metaKeyEscape)
}

// ParseJSON decodes a JSON payload into an annotated Value. Object key order
// is preserved and a top-level "_meta" tree is attached to the matching
// nodes.
func ParseJSON(data []byte) (Annotated[Value], error) {
	return ParseJSONWithDepth(data, DefaultMaxParseDepth)
}

// ParseJSONWithDepth is ParseJSON with an explicit nesting limit. A
// container nested deeper than maxDepth is skipped and left absent with a
// too_deep error.
func ParseJSONWithDepth(data []byte, maxDepth int) (Annotated[Value], error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec, 0, maxDepth)
	if err != nil {
		return Annotated[Value]{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Annotated[Value]{}, errors.New("unexpected trailing data after JSON value")
	}

	if obj := rootObject(&root); obj != nil {
		if tree := obj.Get(MetaKey); tree != nil {
			obj.Remove(MetaKey)
			if treeVal := tree.Value(); treeVal != nil && treeVal.Object() != nil {
				if err := applyMetaTree(&root, treeVal.Object()); err != nil {
					return Annotated[Value]{}, fmt.Errorf("invalid %s tree: %w", MetaKey, err)
				}
			}
		}
	}
	return root, nil
}

func rootObject(a *Annotated[Value]) *Object[Value] {
	if v := a.Value(); v != nil {
		return v.Object()
	}
	return nil
}

func decodeValue(dec *json.Decoder, depth, maxDepth int) (Annotated[Value], error) {
	tok, err := dec.Token()
	if err != nil {
		return Annotated[Value]{}, err
	}
	return decodeToken(dec, tok, depth, maxDepth)
}

func decodeToken(dec *json.Decoder, tok json.Token, depth, maxDepth int) (Annotated[Value], error) {
	switch t := tok.(type) {
	case nil:
		return Empty[Value](), nil
	case bool:
		return New(Bool(t)), nil
	case string:
		return New(String(t)), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return New(Int(i)), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Annotated[Value]{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return New(Float(f)), nil
	case json.Delim:
		if depth >= maxDepth {
			if err := skipContainer(dec); err != nil {
				return Annotated[Value]{}, err
			}
			cut := Empty[Value]()
			cut.AddError(NewError(ErrorTooDeep))
			return cut, nil
		}
		switch t {
		case '[':
			items := Array[Value]{}
			for dec.More() {
				item, err := decodeValue(dec, depth+1, maxDepth)
				if err != nil {
					return Annotated[Value]{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Annotated[Value]{}, err
			}
			return New(ArrayValue(items)), nil
		case '{':
			obj := NewObject[Value]()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Annotated[Value]{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Annotated[Value]{}, fmt.Errorf("expected object key, got %v", keyTok)
				}
				item, err := decodeValue(dec, depth+1, maxDepth)
				if err != nil {
					return Annotated[Value]{}, err
				}
				obj.Insert(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Annotated[Value]{}, err
			}
			return New(ObjectValue(obj)), nil
		}
	}
	return Annotated[Value]{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// skipContainer consumes tokens up to the end of a container whose opening
// delimiter was already read.
func skipContainer(dec *json.Decoder) error {
	for open := 1; open > 0; {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			open++
		case json.Delim(']'), json.Delim('}'):
			open--
		}
	}
	return nil
}

// applyMetaTree attaches meta records from tree to a and its descendants.
func applyMetaTree(a *Annotated[Value], tree *Object[Value]) error {
	for _, key := range tree.Keys() {
		entry := tree.Get(key).Value()
		if entry == nil || entry.Object() == nil {
			continue
		}
		if key == "" {
			meta, err := decodeMeta(entry.Object())
			if err != nil {
				return err
			}
			*a.Meta() = meta
			continue
		}
		key = unescapeMetaKey(key)

		v := a.Value()
		if v == nil {
			continue
		}
		switch v.Kind() {
		case KindObject:
			child := v.Object().Get(key)
			if child == nil {
				v.Object().Insert(key, Empty[Value]())
				child = v.Object().Get(key)
			}
			if err := applyMetaTree(child, entry.Object()); err != nil {
				return err
			}
		case KindArray:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(*v.Array()) {
				continue
			}
			if err := applyMetaTree(&(*v.Array())[idx], entry.Object()); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeMeta(obj *Object[Value]) (Meta, error) {
	var meta Meta

	if errs := obj.Get("err"); errs != nil && errs.Value() != nil {
		list := errs.Value().Array()
		if list == nil {
			return meta, errors.New("err must be an array")
		}
		for i := range *list {
			item := (*list)[i].Value()
			if item == nil {
				continue
			}
			if kind, ok := item.AsString(); ok {
				meta.AddError(NewError(ErrorKind(kind)))
				continue
			}
			parts := item.Array()
			if parts == nil || len(*parts) == 0 {
				return meta, errors.New("malformed error entry")
			}
			e := NewError(ErrorKind(strOf((*parts)[0].Value())))
			if len(*parts) > 1 && (*parts)[1].Value() != nil {
				if data := (*parts)[1].Value().Object(); data != nil {
					if reason := data.Get("reason"); reason != nil {
						e.Reason = strOf(reason.Value())
					}
					if val := data.Get("val"); val != nil && val.Value() != nil {
						orig := *val.Value()
						e.Original = &orig
					}
				}
			}
			meta.AddError(e)
		}
	}

	if rems := obj.Get("rem"); rems != nil && rems.Value() != nil {
		list := rems.Value().Array()
		if list == nil {
			return meta, errors.New("rem must be an array")
		}
		for i := range *list {
			item := (*list)[i].Value()
			if item == nil || item.Array() == nil {
				return meta, errors.New("malformed remark entry")
			}
			parts := *item.Array()
			if len(parts) != 2 && len(parts) != 4 {
				return meta, fmt.Errorf("remark entry has %d fields", len(parts))
			}
			r := NewRemark(strOf(parts[0].Value()), RemarkKind(strOf(parts[1].Value())))
			if len(parts) == 4 {
				start, ok1 := intOf(parts[2].Value())
				end, ok2 := intOf(parts[3].Value())
				if !ok1 || !ok2 {
					return meta, errors.New("remark range must be integers")
				}
				r.Range = &Range{Start: start, End: end}
			}
			meta.AddRemark(r)
		}
	}

	if n := obj.Get("len"); n != nil {
		if l, ok := intOf(n.Value()); ok {
			meta.OriginalLength = &l
		}
	}

	if ext := obj.Get("ext"); ext != nil && ext.Value() != nil {
		if extObj := ext.Value().Object(); extObj != nil {
			for _, key := range extObj.Keys() {
				meta.SetExtra(key, toAny(extObj.Get(key).Value()))
			}
		}
	}

	return meta, nil
}

func strOf(v *Value) string {
	if v == nil {
		return ""
	}
	s, _ := v.AsString()
	return s
}

func intOf(v *Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	i, ok := v.AsInt()
	return int(i), ok
}

func toAny(v *Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, 0, len(v.arr))
		for i := range v.arr {
			out = append(out, toAny(v.arr[i].Value()))
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, key := range v.obj.Keys() {
			out[key] = toAny(v.obj.Get(key).Value())
		}
		return out
	}
	return nil
}

// MarshalValue encodes v as JSON without any meta.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, &v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalPayload encodes the value of a as JSON. Absent values encode as null.
func MarshalPayload(a *Annotated[Value]) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeAnnotated(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalMeta encodes the meta tree of a. It returns "null" when no node
// carries meta.
func MarshalMeta(a *Annotated[Value]) ([]byte, error) {
	var buf bytes.Buffer
	wrote, err := writeMetaTree(&buf, a)
	if err != nil {
		return nil, err
	}
	if !wrote {
		return []byte("null"), nil
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes a as JSON. When a holds an object and any node carries
// meta, the meta tree is written under the top-level "_meta" key. Other
// roots are encoded as plain payload; use MarshalMeta for their meta.
func MarshalJSON(a *Annotated[Value]) ([]byte, error) {
	obj := rootObject(a)
	if obj == nil {
		return MarshalPayload(a)
	}

	var metaBuf bytes.Buffer
	wrote, err := writeMetaTree(&metaBuf, a)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range obj.Keys() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeString(&buf, key)
		buf.WriteByte(':')
		if err := writeAnnotated(&buf, obj.Get(key)); err != nil {
			return nil, err
		}
	}
	if wrote {
		if !first {
			buf.WriteByte(',')
		}
		writeString(&buf, MetaKey)
		buf.WriteByte(':')
		buf.Write(metaBuf.Bytes())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeAnnotated(buf *bytes.Buffer, a *Annotated[Value]) error {
	v := a.Value()
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	return writeValue(buf, v)
}

func writeValue(buf *bytes.Buffer, v *Value) error {
	switch v.Kind() {
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		writeFloat(buf, v.f)
	case KindString:
		writeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeAnnotated(buf, &v.arr[i]); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.obj.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, key)
			buf.WriteByte(':')
			if err := writeAnnotated(buf, v.obj.Get(key)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode value of kind %d", v.Kind())
	}
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("null")
		return
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1)
}

// writeMetaTree writes the meta tree of a and reports whether anything was
// written.
func writeMetaTree(buf *bytes.Buffer, a *Annotated[Value]) (bool, error) {
	var children bytes.Buffer
	count := 0

	addChild := func(key string, child *Annotated[Value]) error {
		var sub bytes.Buffer
		wrote, err := writeMetaTree(&sub, child)
		if err != nil || !wrote {
			return err
		}
		if count > 0 {
			children.WriteByte(',')
		}
		writeString(&children, key)
		children.WriteByte(':')
		children.Write(sub.Bytes())
		count++
		return nil
	}

	if v := a.Value(); v != nil {
		switch v.Kind() {
		case KindArray:
			for i := range v.arr {
				if err := addChild(strconv.Itoa(i), &v.arr[i]); err != nil {
					return false, err
				}
			}
		case KindObject:
			for _, key := range v.obj.Keys() {
				if err := addChild(escapeMetaKey(key), v.obj.Get(key)); err != nil {
					return false, err
				}
			}
		}
	}

	meta := a.Meta()
	if meta.IsEmpty() && count == 0 {
		return false, nil
	}

	buf.WriteByte('{')
	if !meta.IsEmpty() {
		buf.WriteString(`"":`)
		if err := writeMeta(buf, meta); err != nil {
			return false, err
		}
		if count > 0 {
			buf.WriteByte(',')
		}
	}
	buf.Write(children.Bytes())
	buf.WriteByte('}')
	return true, nil
}

func writeMeta(buf *bytes.Buffer, meta *Meta) error {
	buf.WriteByte('{')
	fields := 0
	sep := func() {
		if fields > 0 {
			buf.WriteByte(',')
		}
		fields++
	}

	if len(meta.Errors) > 0 {
		sep()
		buf.WriteString(`"err":[`)
		for i, e := range meta.Errors {
			if i > 0 {
				buf.WriteByte(',')
			}
			if e.Reason == "" && e.Original == nil {
				writeString(buf, string(e.Kind))
				continue
			}
			buf.WriteByte('[')
			writeString(buf, string(e.Kind))
			buf.WriteString(",{")
			if e.Reason != "" {
				buf.WriteString(`"reason":`)
				writeString(buf, e.Reason)
				if e.Original != nil {
					buf.WriteByte(',')
				}
			}
			if e.Original != nil {
				buf.WriteString(`"val":`)
				if err := writeValue(buf, e.Original); err != nil {
					return err
				}
			}
			buf.WriteString("}]")
		}
		buf.WriteByte(']')
	}

	if len(meta.Remarks) > 0 {
		sep()
		buf.WriteString(`"rem":[`)
		for i, r := range meta.Remarks {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			writeString(buf, r.RuleID)
			buf.WriteByte(',')
			writeString(buf, string(r.Kind))
			if r.Range != nil {
				fmt.Fprintf(buf, ",%d,%d", r.Range.Start, r.Range.End)
			}
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
	}

	if meta.OriginalLength != nil {
		sep()
		fmt.Fprintf(buf, `"len":%d`, *meta.OriginalLength)
	}

	if len(meta.Extra) > 0 {
		sep()
		buf.WriteString(`"ext":{`)
		keys := make([]string, 0, len(meta.Extra))
		for k := range meta.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := json.Marshal(meta.Extra[k])
			if err != nil {
				return fmt.Errorf("encode meta extra %q: %w", k, err)
			}
			writeString(buf, k)
			buf.WriteByte(':')
			buf.Write(data)
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return nil
}
