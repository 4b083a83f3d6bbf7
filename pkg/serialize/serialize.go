// Package serialize переводит объекты-значения фреймворка в JSON
// с дискриминатором "class" и обратно. Используется на границах,
// где операнды переноса уходят во внешний workflow-движок
// (XCom-подобные каналы, брокеры, result log).
package serialize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/filetypes"
)

// дискриминаторы wire-формата
const (
	classTable  = "Table"
	classFile   = "File"
	classString = "string"
)

type taggedTable struct {
	Class string `json:"class"`
	dataset.Table
}

type taggedFile struct {
	Class string `json:"class"`
	dataset.File
}

type taggedString struct {
	Class string `json:"class"`
	Value string `json:"value"`
}

// Serialize переводит значение в JSON с дискриминатором.
// Map и slice обходятся рекурсивно; payload сбрасывается во временный
// NDJSON-файл и сериализуется как ссылка на File; прочие значения
// проходят как обычный JSON.
func Serialize(v any) (json.RawMessage, error) {
	switch value := v.(type) {
	case dataset.Table:
		return json.Marshal(taggedTable{Class: classTable, Table: value})
	case *dataset.Table:
		return json.Marshal(taggedTable{Class: classTable, Table: *value})
	case dataset.File:
		return json.Marshal(taggedFile{Class: classFile, File: value})
	case *dataset.File:
		return json.Marshal(taggedFile{Class: classFile, File: *value})
	case string:
		return json.Marshal(taggedString{Class: classString, Value: value})
	case *tabular.Payload:
		spilled, err := SpillPayload(value)
		if err != nil {
			return nil, err
		}
		return Serialize(spilled)
	case map[string]any:
		out := make(map[string]json.RawMessage, len(value))
		for k, item := range value {
			raw, err := Serialize(item)
			if err != nil {
				return nil, err
			}
			out[k] = raw
		}
		return json.Marshal(out)
	case []any:
		out := make([]json.RawMessage, len(value))
		for i, item := range value {
			raw, err := Serialize(item)
			if err != nil {
				return nil, err
			}
			out[i] = raw
		}
		return json.Marshal(out)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %T: %w", v, err)
		}
		return raw, nil
	}
}

// SpillPayload сбрасывает payload во временный NDJSON-файл
// и возвращает File-ссылку на него
func SpillPayload(p *tabular.Payload) (dataset.File, error) {
	codec, err := filetypes.New(dataset.TypeNDJSON)
	if err != nil {
		return dataset.File{}, err
	}

	f, err := os.CreateTemp("", "udt_payload_*.ndjson")
	if err != nil {
		return dataset.File{}, fmt.Errorf("failed to create spill file: %w", err)
	}
	if err := codec.Encode(p, f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return dataset.File{}, fmt.Errorf("failed to spill payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return dataset.File{}, fmt.Errorf("failed to close spill file: %w", err)
	}
	return dataset.File{Path: f.Name(), Type: dataset.TypeNDJSON}, nil
}

// Deserialize восстанавливает значение из JSON с дискриминатором.
// Объекты без "class" и массивы обходятся рекурсивно;
// скаляры возвращаются как есть (числа - json.Number).
func Deserialize(raw json.RawMessage) (any, error) {
	var probe any
	dec := newNumberDecoder(raw)
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("failed to deserialize: %w", err)
	}

	switch value := probe.(type) {
	case map[string]any:
		if class, ok := value["class"].(string); ok {
			return deserializeTagged(class, raw)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fields))
		for k, field := range fields {
			item, err := Deserialize(field)
			if err != nil {
				return nil, err
			}
			out[k] = item
		}
		return out, nil
	case []any:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			dv, err := Deserialize(item)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return probe, nil
	}
}

// deserializeTagged восстанавливает объект по дискриминатору
func deserializeTagged(class string, raw json.RawMessage) (any, error) {
	switch class {
	case classTable:
		var t taggedTable
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to deserialize Table: %w", err)
		}
		return t.Table, nil
	case classFile:
		var f taggedFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("failed to deserialize File: %w", err)
		}
		return f.File, nil
	case classString:
		var s taggedString
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to deserialize string: %w", err)
		}
		return s.Value, nil
	default:
		return nil, fmt.Errorf("unknown class %q", class)
	}
}
