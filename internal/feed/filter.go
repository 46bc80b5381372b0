package feed

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/eventfeed/internal/eventlog"
)

// celFilter wraps a compiled CEL program evaluated against each record on the
// read surface. When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("seq", cel.IntType),
		cel.Variable("inserted_at", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Parsed JSON payload (map/list/values); null when the payload is not JSON
		cel.Variable("json", cel.DynType),
		// Clock sample in Unix seconds for windowed filters
		cel.Variable("now", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a record. Evaluation errors count as no match.
func (f celFilter) Eval(r eventlog.Record, now uint64) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(r.Payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"seq":         int64(r.Seq),
		"inserted_at": int64(r.InsertedAt),
		"size":        int64(len(r.Payload)),
		"text":        string(r.Payload),
		"json":        jsonObj,
		"now":         int64(now),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
