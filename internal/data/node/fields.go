package node

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const emptyFields = "{}"

// encodeFields writes configured field values into a JSON document.
// Field names are machine names, so they never need path escaping.
func encodeFields(fields map[string]any) (string, error) {
	doc := emptyFields
	if len(fields) == 0 {
		return doc, nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		var err error
		doc, err = sjson.Set(doc, name, fields[name])
		if err != nil {
			return "", eris.Wrapf(err, "encoding field %s", name)
		}
	}

	return doc, nil
}

// decodeFields reads a JSON field document. Integral numbers come back as int64.
func decodeFields(doc string) (map[string]any, error) {
	fields := make(map[string]any)
	if doc == "" {
		return fields, nil
	}
	if !gjson.Valid(doc) {
		return nil, eris.New("stored fields are not valid JSON")
	}

	gjson.Parse(doc).ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = decodeValue(value)
		return true
	})

	return fields, nil
}

func decodeValue(value gjson.Result) any {
	switch {
	case value.Type == gjson.Number && value.Num == math.Trunc(value.Num):
		return value.Int()
	case value.IsObject():
		nested := make(map[string]any)
		value.ForEach(func(key, item gjson.Result) bool {
			nested[key.String()] = decodeValue(item)
			return true
		})
		return nested
	default:
		return value.Value()
	}
}
