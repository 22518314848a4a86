package output

import (
	"encoding/base64"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

// Format formats data as YAML. Bytes are written as base64 text, as in
// the JSON output.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	if v, ok := data.(resp.Value); ok {
		data = plain(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func plain(v resp.Value) any {
	switch v.Kind() {
	case resp.KindBytes:
		b, _ := v.AsBytes()
		return base64.StdEncoding.EncodeToString(b)
	case resp.KindList:
		items, _ := v.AsList()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plain(item)
		}
		return out
	case resp.KindMap:
		pairs, _ := v.AsMap()
		out := make(map[string]any, len(pairs))
		for _, p := range pairs {
			key, ok := p.Key.Text()
			if !ok {
				key = p.Key.String()
			}
			out[key] = plain(p.Value)
		}
		return out
	default:
		return v.Native()
	}
}
