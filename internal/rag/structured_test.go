package rag

import (
	"context"
	"errors"
	"testing"
)

const pointSchema = `{
  "type": "object",
  "required": ["x", "y"],
  "properties": {
    "x": {"type": "number"},
    "y": {"type": "number"}
  }
}`

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"fenced", "Here you go:\n```json\n{\"a\": 1}\n```\nbye", `{"a": 1}`},
		{"bare fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"inline object", `The result is {"a": "b}"} as requested.`, `{"a": "b}"}`},
		{"nested", `x {"a": {"b": [1, {"c": 2}]}} y`, `{"a": {"b": [1, {"c": 2}]}}`},
		{"skips invalid fence", "```json\nnot json\n```\n{\"ok\": true}", `{"ok": true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONMalformed(t *testing.T) {
	for _, in := range []string{"", "no json here", "{unbalanced", `{"a": }`} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrMalformedResponse", in, err)
		}
	}
}

func TestDecodeStructured(t *testing.T) {
	schema, err := CompileSchema("point.json", pointSchema)
	if err != nil {
		t.Fatal(err)
	}

	var p point
	if err := DecodeStructured("```json\n{\"x\": 1.5, \"y\": -2}\n```", schema, &p); err != nil {
		t.Fatal(err)
	}
	if p.X != 1.5 || p.Y != -2 {
		t.Fatalf("decoded %+v", p)
	}

	err = DecodeStructured(`{"x": "one"}`, schema, &p)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAnswerJSON(t *testing.T) {
	schema, err := CompileSchema("point.json", pointSchema)
	if err != nil {
		t.Fatal(err)
	}
	gen := &scriptedGenerator{replies: []string{"<think>{\"x\": 0}</think>```json\n{\"x\": 3, \"y\": 4}\n```"}}
	var p point
	if err := NewSynthesizer(gen).AnswerJSON(context.Background(), nil, "where", schema, &p); err != nil {
		t.Fatal(err)
	}
	if p.X != 3 || p.Y != 4 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestCompileSchemaRejectsInvalidDocument(t *testing.T) {
	if _, err := CompileSchema("bad.json", "{not json"); err == nil {
		t.Fatal("expected error")
	}
}
