package media

import (
	"context"
	"log/slog"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/metrics"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// Lookup maps media record ids to public URLs in one round trip.
type Lookup interface {
	LookupMany(ctx context.Context, ids []string) (map[string]string, error)
}

// Resolver replaces media record references in entry fields with the
// public URLs of the records.
type Resolver struct {
	lookup  Lookup
	metrics *metrics.Metrics
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup Lookup, m *metrics.Metrics) *Resolver {
	return &Resolver{lookup: lookup, metrics: m}
}

// ResolveEntry returns a copy of fields with every media value that names a
// library record pointed at the record's URL. Top-level media fields and
// media columns of array items are covered. All ids are fetched with a single
// lookup. Unknown ids are left untouched, and a failed lookup is logged and
// returns the fields unchanged.
func (r *Resolver) ResolveEntry(ctx context.Context, m schema.ContentModel, fields map[string]dynval.Value) map[string]dynval.Value {
	out := make(map[string]dynval.Value, len(fields))
	for k, v := range fields {
		out[k] = v
	}

	ids := collectMediaIDs(m, fields)
	if len(ids) == 0 {
		return out
	}

	urls, err := r.lookup.LookupMany(ctx, ids)
	if err != nil {
		slog.Warn("media lookup failed, exporting unresolved values", "model", m.APIIdentifier, "ids", len(ids), "error", err)
		r.metrics.RecordMediaResolution(ctx, "failed", len(ids))
		return out
	}

	resolved := 0
	for _, id := range ids {
		if _, ok := urls[id]; ok {
			resolved++
		}
	}
	if missing := len(ids) - resolved; missing > 0 {
		slog.Warn("media ids not found", "model", m.APIIdentifier, "count", missing)
		r.metrics.RecordMediaResolution(ctx, "unresolved", missing)
	}
	r.metrics.RecordMediaResolution(ctx, "resolved", resolved)

	for _, f := range m.Fields {
		v, ok := out[f.APIIdentifier]
		if !ok {
			continue
		}
		switch f.FieldType {
		case schema.FieldTypeMedia:
			out[f.APIIdentifier] = substitute(v, urls)
		case schema.FieldTypeArray:
			out[f.APIIdentifier] = substituteItems(v, f.Options.ItemFields, urls)
		}
	}
	return out
}

// collectMediaIDs returns the distinct record ids referenced by media values
// of fields, in schema order.
func collectMediaIDs(m schema.ContentModel, fields map[string]dynval.Value) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(v dynval.Value) {
		if id, ok := schema.MediaRecordID(v); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, f := range m.Fields {
		v, ok := fields[f.APIIdentifier]
		if !ok {
			continue
		}
		switch f.FieldType {
		case schema.FieldTypeMedia:
			add(v)
		case schema.FieldTypeArray:
			items, _ := v.AsArray()
			for _, item := range items {
				for _, col := range mediaColumns(f.Options.ItemFields) {
					add(item.Get(col))
				}
			}
		}
	}
	return ids
}

func mediaColumns(itemFields []schema.ArrayItemField) []string {
	var cols []string
	for _, c := range itemFields {
		if c.FieldType == schema.ItemFieldMedia {
			cols = append(cols, c.APIIdentifier)
		}
	}
	return cols
}

// substitute points v at its record URL, keeping the value's shape: a bare
// id becomes a bare URL, an object keeps its other members.
func substitute(v dynval.Value, urls map[string]string) dynval.Value {
	id, ok := schema.MediaRecordID(v)
	if !ok {
		return v
	}
	u, ok := urls[id]
	if !ok {
		return v
	}
	if _, isString := v.AsString(); isString {
		return dynval.String(u)
	}
	return v.With("url", dynval.String(u))
}

func substituteItems(v dynval.Value, itemFields []schema.ArrayItemField, urls map[string]string) dynval.Value {
	items, ok := v.AsArray()
	if !ok {
		return v
	}
	cols := mediaColumns(itemFields)
	if len(cols) == 0 {
		return v
	}
	out := make([]dynval.Value, len(items))
	for i, item := range items {
		for _, col := range cols {
			if _, isObject := item.AsObject(); isObject && !item.Get(col).IsNull() {
				item = item.With(col, substitute(item.Get(col), urls))
			}
		}
		out[i] = item
	}
	return dynval.Array(out...)
}
