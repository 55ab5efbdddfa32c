package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DecodeError reports a malformed serialized pattern.
type DecodeError struct {
	Path    string // JSON path of the offending element, e.g. "$.follows[2]"
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pattern deserialization failed at %s: %s", e.Path, e.Message)
}

// Codec decodes serialized patterns. The zero value is ready to use.
type Codec struct{}

// Decode parses a serialized pattern.
func (Codec) Decode(data json.RawMessage) (Pattern, error) {
	return Decode(data)
}

// Decode parses a serialized pattern.
func Decode(data []byte) (Pattern, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Path: "$", Message: "pattern is empty"}
	}
	return decodeElement(data, "$")
}

const (
	keyRepeatMin = "repeat_count_min"
	keyRepeatMax = "repeat_count_max"
)

var kindsByKey = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func decodeElement(data []byte, path string) (*Element, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, &DecodeError{Path: path, Message: "element must be a JSON object"}
	}

	var kinds []string
	for key := range fields {
		if _, ok := kindsByKey[key]; ok {
			kinds = append(kinds, key)
			continue
		}
		if key == keyRepeatMin || key == keyRepeatMax {
			continue
		}
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown key %q", key)}
	}
	slices.Sort(kinds)
	switch len(kinds) {
	case 0:
		return nil, &DecodeError{Path: path, Message: "element has no kind key"}
	case 1:
	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("element has several kind keys: %s", strings.Join(kinds, ", "))}
	}

	key := kinds[0]
	kind := kindsByKey[key]
	elPath := path + "." + key
	if kind != KindLoop {
		if _, ok := fields[keyRepeatMin]; ok {
			return nil, &DecodeError{Path: path, Message: keyRepeatMin + " is only valid on loop"}
		}
		if _, ok := fields[keyRepeatMax]; ok {
			return nil, &DecodeError{Path: path, Message: keyRepeatMax + " is only valid on loop"}
		}
	}

	el := &Element{Kind: kind}
	switch {
	case kind == KindLeaf:
		acts, err := decodeActivities(fields[key], elPath)
		if err != nil {
			return nil, err
		}
		el.Activities = acts

	case kind.IsGroup():
		var children []json.RawMessage
		if err := json.Unmarshal(fields[key], &children); err != nil {
			return nil, &DecodeError{Path: elPath, Message: "group must be a JSON array"}
		}
		if len(children) == 0 {
			return nil, &DecodeError{Path: elPath, Message: "group has no elements"}
		}
		for i, c := range children {
			child, err := decodeElement(c, fmt.Sprintf("%s[%d]", elPath, i))
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		}
		if kind == KindLoop {
			if err := decodeRepeat(el, fields, path); err != nil {
				return nil, err
			}
		}

	default:
		var flag bool
		if err := json.Unmarshal(fields[key], &flag); err != nil || !flag {
			return nil, &DecodeError{Path: elPath, Message: "marker must be true"}
		}
	}
	return el, nil
}

func decodeActivities(data json.RawMessage, path string) ([]string, error) {
	var acts []string
	if err := json.Unmarshal(data, &acts); err != nil {
		// A single activity may be given as a bare string.
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, &DecodeError{Path: path, Message: "leaf must be a string or an array of strings"}
		}
		acts = []string{single}
	}
	if len(acts) == 0 {
		return nil, &DecodeError{Path: path, Message: "leaf names no activity"}
	}
	for i, a := range acts {
		a = norm.NFC.String(strings.TrimSpace(a))
		if a == "" {
			return nil, &DecodeError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "empty activity"}
		}
		acts[i] = a
	}
	return acts, nil
}

func decodeRepeat(el *Element, fields map[string]json.RawMessage, path string) error {
	el.RepeatMin, el.RepeatMax = 1, -1
	if raw, ok := fields[keyRepeatMin]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &el.RepeatMin); err != nil || el.RepeatMin < 0 {
			return &DecodeError{Path: path + "." + keyRepeatMin, Message: "must be a non-negative integer"}
		}
	}
	if raw, ok := fields[keyRepeatMax]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &el.RepeatMax); err != nil || el.RepeatMax < 0 {
			return &DecodeError{Path: path + "." + keyRepeatMax, Message: "must be a non-negative integer"}
		}
		if el.RepeatMax < el.RepeatMin {
			return &DecodeError{Path: path, Message: fmt.Sprintf("repeat_count_max %d is below repeat_count_min %d", el.RepeatMax, el.RepeatMin)}
		}
	}
	return nil
}
