package queryir

import (
	"fmt"
	"strings"
)

// QueryType selects the strategy a query factory uses to match a pattern.
// The zero value is not a valid query type.
type QueryType int

const (
	// QueryTypeBFS searches graphs breadth-first.
	QueryTypeBFS QueryType = iota + 1
	// QueryTypeDFS searches graphs depth-first.
	QueryTypeDFS
	// QueryTypeVM compiles the pattern up front and runs the compiled form.
	QueryTypeVM
	// QueryTypeVMLazy compiles the pattern on first use.
	QueryTypeVMLazy
)

var queryTypeNames = map[QueryType]string{
	QueryTypeBFS:    "BFS",
	QueryTypeDFS:    "DFS",
	QueryTypeVM:     "VM",
	QueryTypeVMLazy: "VM_LAZY",
}

var queryTypesByName = map[string]QueryType{
	"BFS":     QueryTypeBFS,
	"DFS":     QueryTypeDFS,
	"VM":      QueryTypeVM,
	"VM_LAZY": QueryTypeVMLazy,
}

// QueryTypes returns every valid query type in declaration order.
func QueryTypes() []QueryType {
	return []QueryType{QueryTypeBFS, QueryTypeDFS, QueryTypeVM, QueryTypeVMLazy}
}

// ParseQueryType resolves a query type by exact, case-sensitive name.
func ParseQueryType(name string) (QueryType, error) {
	if t, ok := queryTypesByName[name]; ok {
		return t, nil
	}
	return 0, &InvalidQueryTypeError{Name: name}
}

// String returns the wire name of the query type.
func (t QueryType) String() string {
	if name, ok := queryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("QueryType(%d)", int(t))
}

// Valid reports whether t is one of the enumerated query types.
func (t QueryType) Valid() bool {
	_, ok := queryTypeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t QueryType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *QueryType) UnmarshalText(text []byte) error {
	parsed, err := ParseQueryType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func queryTypeNameList() string {
	names := make([]string, 0, len(queryTypeNames))
	for _, t := range QueryTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
