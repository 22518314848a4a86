package domain

import (
	"strings"
	"testing"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

func TestInferValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  resp.Value
	}{
		{"integer", "123", resp.Int(123)},
		{"negative integer", "-5", resp.Int(-5)},
		{"plus sign", "+7", resp.Int(7)},
		{"zero", "0", resp.Int(0)},
		{"overflow becomes float", "99999999999999999999", resp.Float(1e20)},
		{"float", "3.14", resp.Float(3.14)},
		{"exponent", "1e3", resp.Float(1000)},
		{"leading dot", ".5", resp.Float(0.5)},
		{"true", "true", resp.Bool(true)},
		{"TRUE", "TRUE", resp.Bool(true)},
		{"False", "False", resp.Bool(false)},
		{"plain string", "hello world", resp.String("hello world")},
		{"empty", "", resp.String("")},
		{"inf stays string", "inf", resp.String("inf")},
		{"nan stays string", "NaN", resp.String("NaN")},
		{"hex stays string", "0x10", resp.String("0x10")},
		{"dangling exponent", "1e", resp.String("1e")},
		{"sign only", "-", resp.String("-")},
		{"json object", `{"a":1,"b":[true,null,"x"],"c":1.5}`, resp.Map(
			resp.Pair{Key: resp.String("a"), Value: resp.Int(1)},
			resp.Pair{Key: resp.String("b"), Value: resp.List(resp.Bool(true), resp.Null(), resp.String("x"))},
			resp.Pair{Key: resp.String("c"), Value: resp.Float(1.5)},
		)},
		{"json array", `[1, 2, 3]`, resp.List(resp.Int(1), resp.Int(2), resp.Int(3))},
		{"empty object", `{}`, resp.Map()},
		{"broken json", `{not json}`, resp.String("{not json}")},
		{"trailing json", `[1] [2]`, resp.String("[1] [2]")},
		{"mismatched brackets", `[1}`, resp.String("[1}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferValue(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("InferValue(%q) = %v (%s), want %v (%s)",
					tt.input, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestInferValue_JSONKeepsKeyOrder(t *testing.T) {
	v := InferValue(`{"z":1,"a":2,"m":3}`)
	pairs, ok := v.AsMap()
	if !ok {
		t.Fatalf("kind = %s, want map", v.Kind())
	}
	var keys []string
	for _, p := range pairs {
		k, _ := p.Key.AsString()
		keys = append(keys, k)
	}
	if got := strings.Join(keys, ","); got != "z,a,m" {
		t.Errorf("keys = %s, want z,a,m", got)
	}
}

func TestInferValue_DeepJSONStaysString(t *testing.T) {
	s := strings.Repeat("[", MaxJSONDepth+2) + strings.Repeat("]", MaxJSONDepth+2)
	if got := InferValue(s); got.Kind() != resp.KindString {
		t.Errorf("kind = %s, want string", got.Kind())
	}
}
