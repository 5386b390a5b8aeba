// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Value is one extracted field value. Kind selects which member is meaningful.
//
// JSON form follows the value: true, 5, [1,2] or "text".
type Value struct {
	Kind ValueKind
	Bool bool
	Int  int
	Ints []int
	Text string
}

func BoolValue() Value {
	return Value{Kind: KindBoolean, Bool: true}
}

func IntValue(n int) Value {
	return Value{Kind: KindNumeric, Int: n}
}

// IntsValue returns a multi-valued Value holding the distinct values of ns, sorted.
func IntsValue(ns []int) Value {
	out := slices.Clone(ns)
	slices.Sort(out)
	return Value{Kind: KindMultiNumeric, Ints: slices.Compact(out)}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Equal compares values by content. Choice and numeric values compare equal
// when their integers match.
func (v Value) Equal(o Value) bool {
	switch v.Kind {
	case KindBoolean:
		return o.Kind == KindBoolean && v.Bool == o.Bool
	case KindNumeric, KindChoice:
		return (o.Kind == KindNumeric || o.Kind == KindChoice) && v.Int == o.Int
	case KindMultiNumeric:
		return o.Kind == KindMultiNumeric && slices.Equal(v.Ints, o.Ints)
	case KindText:
		return o.Kind == KindText && v.Text == o.Text
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindNumeric, KindChoice:
		return strconv.Itoa(v.Int)
	case KindMultiNumeric:
		parts := make([]string, len(v.Ints))
		for i, n := range v.Ints {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindText:
		return v.Text
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindNumeric, KindChoice:
		return json.Marshal(v.Int)
	case KindMultiNumeric:
		if v.Ints == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Ints)
	case KindText:
		return json.Marshal(v.Text)
	}
	return nil, fmt.Errorf("cannot marshal value of kind %q", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Value{Kind: KindBoolean, Bool: b}
	case '[':
		var ns []int
		if err := json.Unmarshal(data, &ns); err != nil {
			return err
		}
		*v = IntsValue(ns)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = IntValue(n)
	}
	return nil
}
