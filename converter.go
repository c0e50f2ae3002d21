package gomonetdb

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// monetdbTypeToGo translates a MonetDB column type to a Go data type.
func monetdbTypeToGo(dbtype string) reflect.Type {
	switch dbtype {
	case "tinyint", "smallint", "int", "bigint", "hugeint", "serial", "oid", "wrd", "month_interval":
		return reflect.TypeOf(int64(0))
	case "real", "double", "float", "decimal", "numeric":
		return reflect.TypeOf(float64(0))
	case "boolean":
		return reflect.TypeOf(true)
	case "char", "varchar", "clob", "text", "url", "json", "inet", "uuid":
		return reflect.TypeOf("")
	case "blob":
		return reflect.TypeOf([]byte{})
	case "date", "time", "timestamp", "timestamptz", "timetz":
		return reflect.TypeOf(time.Time{})
	case "sec_interval", "day_interval":
		return reflect.TypeOf(time.Duration(0))
	}
	logger.Debugf("unsupported dbtype is specified. %v", dbtype)
	return reflect.TypeOf("")
}

var (
	dateLayout = "2006-01-02"
	timeLayouts = []string{
		"15:04:05.999999",
		"15:04:05",
	}
	timestampLayouts = []string{
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
	}
	timestampTzLayouts = []string{
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05.999999-0700",
		"2006-01-02 15:04:05-0700",
	}
)

// stringToValue converts the trimmed wire text of one field into a Go value
// according to the column's declared MonetDB type. This is the single place
// where wire-text-to-value decoding policy lives.
func stringToValue(raw string, typeName string) (driver.Value, error) {
	if raw == "NULL" {
		return nil, nil
	}
	switch typeName {
	case "tinyint", "smallint", "int", "bigint", "hugeint", "serial", "oid", "wrd", "month_interval":
		return strconv.ParseInt(raw, 10, 64)
	case "real", "double", "float", "decimal", "numeric":
		return strconv.ParseFloat(raw, 64)
	case "boolean":
		return raw == "true", nil
	case "char", "varchar", "clob", "text", "url", "json", "inet", "uuid":
		return unquoteField(raw)
	case "blob":
		return decodeBlobField(raw)
	case "date":
		return time.Parse(dateLayout, raw)
	case "time", "timetz":
		return parseAny(raw, timeLayouts)
	case "timestamp":
		return parseAny(raw, timestampLayouts)
	case "timestamptz":
		return parseAny(raw, timestampTzLayouts)
	case "sec_interval", "day_interval":
		ms, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return nil, &MonetDBError{
		Number:      ErrCodeUnsupportedType,
		Message:     "type %v is not supported",
		MessageArgs: []interface{}{typeName},
	}
}

func parseAny(raw string, layouts []string) (time.Time, error) {
	var err error
	var t time.Time
	for _, layout := range layouts {
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// unquoteField strips the double quotes of a character field and resolves
// backslash escapes.
func unquoteField(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return raw, nil
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case 'x':
			if i+2 < len(body) {
				if v, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
					sb.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			sb.WriteByte('x')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String(), nil
}

func decodeBlobField(raw string) ([]byte, error) {
	data := make([]byte, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		v, err := strconv.ParseUint(raw[i:i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		data[i/2] = byte(v)
	}
	return data, nil
}

// valueToLiteral renders a Go value as a MonetDB SQL literal. This is used in
// binding data with placeholders in statements.
func valueToLiteral(v interface{}) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	switch vv := v.(type) {
	case bool:
		return strconv.FormatBool(vv), nil
	case string:
		return monetEscape(vv), nil
	case []byte:
		return monetEscape(string(vv)), nil
	case time.Time:
		return monetEscape(vv.Format("2006-01-02 15:04:05.000000")), nil
	case driver.Valuer:
		inner, err := vv.Value()
		if err != nil {
			return "", err
		}
		return valueToLiteral(inner)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Slice, reflect.Array:
		// composite literal, e.g. for IN (...) lists
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			part, err := valueToLiteral(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	}
	return "", &MonetDBError{
		Number:      ErrCodeUnsupportedParams,
		Message:     "unsupported parameter type %T",
		MessageArgs: []interface{}{v},
	}
}

// monetEscape quotes a string literal, doubling backslashes and escaping
// single quotes.
func monetEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
