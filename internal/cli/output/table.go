package output

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
// Supports: Table, resp.Value, structs and map[string]string.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch d := data.(type) {
	case nil:
		return nil
	case *Table:
		return d.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return d.RenderWithOptions(w, f.NoHeaders)
	case resp.Value:
		return f.formatValue(w, d)
	}

	table, err := structToTable(data)
	if err != nil {
		_, err = fmt.Fprintf(w, "%v\n", data)
		return err
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func (f *TableFormatter) formatValue(w io.Writer, v resp.Value) error {
	switch v.Kind() {
	case resp.KindMap:
		table := &Table{Headers: []string{"KEY", "VALUE"}}
		pairs, _ := v.AsMap()
		for _, p := range pairs {
			table.AddRow(cell(p.Key), cell(p.Value))
		}
		return table.RenderWithOptions(w, f.NoHeaders)
	case resp.KindList:
		items, _ := v.AsList()
		if len(items) == 0 {
			_, err := fmt.Fprintln(w, "(empty list)")
			return err
		}
		table := &Table{Headers: []string{"#", "VALUE"}}
		for i, item := range items {
			table.AddRow(strconv.Itoa(i+1), cell(item))
		}
		return table.RenderWithOptions(w, f.NoHeaders)
	default:
		_, err := fmt.Fprintln(w, cell(v))
		return err
	}
}

// cell renders one value on a single line.
func cell(v resp.Value) string {
	if v.Kind() == resp.KindString {
		s, _ := v.AsString()
		if s == "" {
			return `""`
		}
		return strings.ReplaceAll(s, "\n", `\n`)
	}
	return v.String()
}

// structToTable converts a struct or string map to a FIELD/VALUE table.
func structToTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		table := &Table{Headers: []string{"FIELD", "VALUE"}}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag := field.Tag.Get("json"); tag != "" {
				if n, _, _ := strings.Cut(tag, ","); n != "" && n != "-" {
					name = n
				}
			}
			table.AddRow(name, fmt.Sprint(v.Field(i).Interface()))
		}
		return table, nil
	case reflect.Map:
		m, ok := data.(map[string]string)
		if !ok {
			return nil, fmt.Errorf("unsupported map type %T", data)
		}
		table := &Table{Headers: []string{"KEY", "VALUE"}}
		for k, val := range m {
			table.AddRow(k, val)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(t.Headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
