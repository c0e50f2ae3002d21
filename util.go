package gomonetdb

import "database/sql/driver"

// integer min
func intMin64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// integer max
func intMax64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func namedToValues(args []driver.NamedValue) []interface{} {
	values := make([]interface{}, len(args))
	for idx, arg := range args {
		values[idx] = arg.Value
	}
	return values
}

func toValues(args []driver.Value) []interface{} {
	values := make([]interface{}, len(args))
	for idx, arg := range args {
		values[idx] = arg
	}
	return values
}
