package ddb

import (
	"fmt"
	"strings"

	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// updateExpr assembles an UpdateExpression from SET/REMOVE parts without
// hand-numbering placeholders at every call site.
type updateExpr struct {
	sets    []string
	removes []string
	names   map[string]string
	values  map[string]ddbTypes.AttributeValue
}

func newUpdateExpr() *updateExpr {
	return &updateExpr{
		names:  make(map[string]string),
		values: make(map[string]ddbTypes.AttributeValue),
	}
}

func (e *updateExpr) set(attr string, val ddbTypes.AttributeValue) {
	n := len(e.names)
	nameKey := fmt.Sprintf("#a%d", n)
	valKey := fmt.Sprintf(":v%d", n)
	e.names[nameKey] = attr
	e.values[valKey] = val
	e.sets = append(e.sets, fmt.Sprintf("%s = %s", nameKey, valKey))
}

func (e *updateExpr) remove(attr string) {
	nameKey := fmt.Sprintf("#a%d", len(e.names))
	e.names[nameKey] = attr
	e.removes = append(e.removes, nameKey)
}

func (e *updateExpr) expression() string {
	var parts []string
	if len(e.sets) > 0 {
		parts = append(parts, "SET "+strings.Join(e.sets, ", "))
	}
	if len(e.removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(e.removes, ", "))
	}
	return strings.Join(parts, " ")
}

func (e *updateExpr) valuesOrNil() map[string]ddbTypes.AttributeValue {
	if len(e.values) == 0 {
		return nil
	}
	return e.values
}
