package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// CanonicalJSON encodes v as canonical JSON: object keys sorted by byte order
// at every depth, arrays in their original order, no insignificant
// whitespace and numbers in the shortest form encoding/json produces.
//
// v is first marshaled with encoding/json and decoded back into generic
// values, so any JSON-marshalable value is accepted. The re-encoding walks
// the generic tree with an explicit stack; deeply nested input cannot
// exhaust the goroutine stack.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal for canonical encoding: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode for canonical encoding: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// work is one pending unit of output: either a literal token or a value
// still to be encoded.
type work struct {
	literal string
	isLit   bool
	value   any
}

func encodeCanonical(buf *bytes.Buffer, root any) error {
	stack := []work{{value: root}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.isLit {
			buf.WriteString(w.literal)
			continue
		}

		switch t := w.value.(type) {
		case map[string]any:
			if len(t) == 0 {
				buf.WriteString("{}")
				continue
			}
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			// Pushed in reverse so the first key is popped first.
			stack = append(stack, work{literal: "}", isLit: true})
			for i := len(keys) - 1; i >= 0; i-- {
				key, err := quote(keys[i])
				if err != nil {
					return err
				}
				stack = append(stack,
					work{value: t[keys[i]]},
					work{literal: key + ":", isLit: true})
				if i > 0 {
					stack = append(stack, work{literal: ",", isLit: true})
				}
			}
			stack = append(stack, work{literal: "{", isLit: true})

		case []any:
			if len(t) == 0 {
				buf.WriteString("[]")
				continue
			}
			stack = append(stack, work{literal: "]", isLit: true})
			for i := len(t) - 1; i >= 0; i-- {
				stack = append(stack, work{value: t[i]})
				if i > 0 {
					stack = append(stack, work{literal: ",", isLit: true})
				}
			}
			stack = append(stack, work{literal: "[", isLit: true})

		case string:
			s, err := quote(t)
			if err != nil {
				return err
			}
			buf.WriteString(s)

		case json.Number:
			// Numbers inside float64 range take encoding/json's float form so
			// 1.0 and 1 encode alike; others keep their literal text.
			if f, err := t.Float64(); err == nil {
				b, err := json.Marshal(f)
				if err != nil {
					return err
				}
				buf.Write(b)
			} else {
				buf.WriteString(t.String())
			}

		case bool:
			if t {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}

		case nil:
			buf.WriteString("null")

		default:
			return fmt.Errorf("canonical encoding: unexpected value of type %T", t)
		}
	}
	return nil
}

func quote(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("canonical encoding: %w", err)
	}
	return string(b), nil
}
