// Copyright 2026 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqle

import (
	"fmt"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	"github.com/dolthub/stripelog/store/column"
)

// KindForType returns the column kind used to store values of |typ|. Boolean columns are stored as bools,
// other integer types as int64, floating point types as float64 and text types as strings.
func KindForType(typ sql.Type) (column.Kind, error) {
	switch {
	case typ.Equals(types.Boolean):
		return column.BoolKind, nil
	case types.IsInteger(typ):
		return column.Int64Kind, nil
	case types.IsFloat(typ):
		return column.Float64Kind, nil
	case types.IsText(typ):
		return column.StringKind, nil
	}

	return column.UnknownKind, fmt.Errorf("%w: no stripelog column kind for type %s", column.ErrUnknownKind, typ.String())
}

// TypeForKind returns the sql type used to present a column of kind |k|.
func TypeForKind(k column.Kind) (sql.Type, error) {
	switch k {
	case column.Int64Kind:
		return types.Int64, nil
	case column.Float64Kind:
		return types.Float64, nil
	case column.StringKind:
		return types.LongText, nil
	case column.BoolKind:
		return types.Boolean, nil
	}

	return nil, fmt.Errorf("%w: %s", column.ErrUnknownKind, k)
}

// SchemaForColumns builds a non-nullable schema for the columns |names| of kinds |kinds|.
func SchemaForColumns(source string, names []string, kinds []column.Kind) (sql.Schema, error) {
	if len(names) != len(kinds) {
		return nil, fmt.Errorf("%d column names for %d column kinds", len(names), len(kinds))
	}

	sch := make(sql.Schema, len(names))
	for i, name := range names {
		typ, err := TypeForKind(kinds[i])
		if err != nil {
			return nil, err
		}

		sch[i] = &sql.Column{Name: name, Type: typ, Source: source, Nullable: false}
	}

	return sch, nil
}

// toStored converts the sql value |v| to the Go type stored in columns of kind |k|.
func toStored(k column.Kind, v interface{}) (interface{}, error) {
	switch k {
	case column.Int64Kind:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		}
	case column.Float64Kind:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
	case column.StringKind:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case column.BoolKind:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int8:
			return b != 0, nil
		}
	}

	return nil, fmt.Errorf("%w: cannot store %T in %s column", column.ErrTypeMismatch, v, k)
}

// fromStored converts a stored value to the Go type expected by the sql type of kind |k|.
func fromStored(k column.Kind, v interface{}) interface{} {
	if k == column.BoolKind {
		if v.(bool) {
			return int8(1)
		}
		return int8(0)
	}

	return v
}
