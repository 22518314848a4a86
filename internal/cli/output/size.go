package output

import (
	"github.com/docker/go-units"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// WithHumanSize adds a "human_size" field next to an integer "size" field
// of a map reply. Other values are returned unchanged.
func WithHumanSize(v resp.Value) resp.Value {
	pairs, ok := v.AsMap()
	if !ok {
		return v
	}
	size, ok := v.Lookup("size")
	if !ok {
		return v
	}
	n, ok := size.AsInt()
	if !ok {
		return v
	}
	pairs = append(pairs, resp.Pair{
		Key:   resp.String("human_size"),
		Value: resp.String(units.HumanSize(float64(n))),
	})
	return resp.Map(pairs...)
}
