package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

type AnnotationKind string

const (
	// AnnotationStructured holds the oracle's JSON output as-is.
	AnnotationStructured AnnotationKind = "structured"
	// AnnotationRawFallback keeps oracle output that could not be parsed.
	AnnotationRawFallback AnnotationKind = "raw_fallback"
	// AnnotationUnavailable records an oracle failure.
	AnnotationUnavailable AnnotationKind = "unavailable"
)

// Annotation is the interpreter's result for one answer. Exactly one of Data,
// Raw or Error is meaningful, selected by Kind.
//
// Serialized forms:
//
//	structured:   the JSON object or array unchanged
//	raw_fallback: {"raw_analysis": "...", "parsing_error": true}
//	unavailable:  {"error": "..."}
type Annotation struct {
	Kind  AnnotationKind
	Data  json.RawMessage
	Raw   string
	Error string
}

type rawFallbackPayload struct {
	RawAnalysis  string `json:"raw_analysis"`
	ParsingError bool   `json:"parsing_error"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// StructuredAnnotation wraps a JSON object or array. Anything else is an error.
func StructuredAnnotation(data []byte) (Annotation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return Annotation{}, errors.New("annotation data must be a JSON object or array")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Annotation{}, fmt.Errorf("invalid annotation json: %w", err)
	}
	return Annotation{Kind: AnnotationStructured, Data: buf.Bytes()}, nil
}

func RawFallbackAnnotation(raw string) Annotation {
	return Annotation{Kind: AnnotationRawFallback, Raw: raw}
}

func UnavailableAnnotation(err error) Annotation {
	msg := "annotation unavailable"
	if err != nil {
		msg = err.Error()
	}
	return Annotation{Kind: AnnotationUnavailable, Error: msg}
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnnotationStructured:
		if len(a.Data) == 0 {
			return []byte("{}"), nil
		}
		return a.Data, nil
	case AnnotationRawFallback:
		return json.Marshal(rawFallbackPayload{RawAnalysis: a.Raw, ParsingError: true})
	case AnnotationUnavailable:
		return json.Marshal(errorPayload{Error: a.Error})
	default:
		return nil, fmt.Errorf("unknown annotation kind %q", a.Kind)
	}
}

func (a *Annotation) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return err
		}
		var parsingError bool
		if raw, ok := probe["parsing_error"]; ok && json.Unmarshal(raw, &parsingError) == nil && parsingError {
			var fb rawFallbackPayload
			if err := json.Unmarshal(trimmed, &fb); err != nil {
				return err
			}
			*a = RawFallbackAnnotation(fb.RawAnalysis)
			return nil
		}
		if raw, ok := probe["error"]; ok && len(probe) == 1 {
			var msg string
			if json.Unmarshal(raw, &msg) == nil {
				*a = Annotation{Kind: AnnotationUnavailable, Error: msg}
				return nil
			}
		}
	}
	ann, err := StructuredAnnotation(trimmed)
	if err != nil {
		return err
	}
	*a = ann
	return nil
}

// JSON returns the serialized form for the processed_data column.
func (a Annotation) JSON() (datatypes.JSON, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
