package gomonetdb

import (
	"strconv"
	"strings"
)

// ColumnDescription describes one column of a result set. Precision and
// scale are populated for decimal columns only; InternalSize is populated for
// every column once the typesizes header arrived. DisplaySize and Nullable
// are not reported by the server and keep their zero values.
type ColumnDescription struct {
	Name         string
	TypeName     string
	DisplaySize  int
	InternalSize int
	Precision    int
	Scale        int
	Nullable     bool
}

// columnMetadata assembles the column description vectors from header events.
// A result-set-opened event allocates fresh vectors sized to the column
// count; header events progressively fill them. The description is complete
// once at least the name header arrived.
type columnMetadata struct {
	count         int
	names         []string
	types         []string
	internalSizes []int
	precisions    []int
	scales        []int
	haveNames     bool
}

func newColumnMetadata(count int) *columnMetadata {
	return &columnMetadata{
		count:         count,
		names:         make([]string, count),
		types:         make([]string, count),
		internalSizes: make([]int, count),
		precisions:    make([]int, count),
		scales:        make([]int, count),
	}
}

// applyHeader folds one header event into the vectors. Each recognized
// identity overwrites its vector across all columns; unrecognized identities
// are ignored.
func (m *columnMetadata) applyHeader(ev headerEvent) {
	switch ev.identity {
	case headerName:
		copyVector(m.names, ev.values)
		m.haveNames = true
	case headerType:
		copyVector(m.types, ev.values)
	case headerTypeSizes:
		for i, v := range ev.values {
			if i >= m.count {
				break
			}
			sizes := strings.Fields(v)
			if len(sizes) < 2 {
				continue
			}
			internal, err1 := strconv.Atoi(sizes[0])
			scale, err2 := strconv.Atoi(sizes[1])
			if err1 != nil || err2 != nil {
				continue
			}
			m.internalSizes[i] = internal
			if m.types[i] == "decimal" {
				m.precisions[i] = internal
				m.scales[i] = scale
			}
		}
	}
}

func copyVector(dst []string, src []string) {
	for i := range dst {
		if i < len(src) {
			dst[i] = src[i]
		}
	}
}

// description materializes the ColumnDescription list, or nil while the name
// header has not arrived yet.
func (m *columnMetadata) description() []ColumnDescription {
	if !m.haveNames {
		return nil
	}
	desc := make([]ColumnDescription, m.count)
	for i := range desc {
		desc[i] = ColumnDescription{
			Name:         m.names[i],
			TypeName:     m.types[i],
			InternalSize: m.internalSizes[i],
			Precision:    m.precisions[i],
			Scale:        m.scales[i],
		}
	}
	return desc
}
