package testkit

import (
	"context"
	"fmt"
	"strings"

	"statquery/ports"
)

// ScriptedResponse pairs a query fragment with the rows (or error) to return
// when an executed query contains it. Matching is case-insensitive and
// first-match-wins, in registration order.
type ScriptedResponse struct {
	Match string
	Arg   any // optional: also require one positional arg to equal this
	Rows  []map[string]any
	Err   error
}

// ExecutedQuery records one call made against the fake executor.
type ExecutedQuery struct {
	Query string
	Args  []any
}

// FakeExecutor is a scriptable QueryExecutor for handler tests. It records
// every executed query so tests can assert on the generated SQL.
type FakeExecutor struct {
	Responses []ScriptedResponse
	Executed  []ExecutedQuery
}

// NewFakeExecutor creates an empty fake executor
func NewFakeExecutor(responses ...ScriptedResponse) *FakeExecutor {
	return &FakeExecutor{Responses: responses}
}

// Script appends a scripted response.
func (f *FakeExecutor) Script(match string, rows []map[string]any) *FakeExecutor {
	f.Responses = append(f.Responses, ScriptedResponse{Match: match, Rows: rows})
	return f
}

// ScriptArg appends a scripted response that also requires one of the
// query's positional args to equal arg.
func (f *FakeExecutor) ScriptArg(match string, arg any, rows []map[string]any) *FakeExecutor {
	f.Responses = append(f.Responses, ScriptedResponse{Match: match, Arg: arg, Rows: rows})
	return f
}

// ScriptError appends a scripted failure.
func (f *FakeExecutor) ScriptError(match string, err error) *FakeExecutor {
	f.Responses = append(f.Responses, ScriptedResponse{Match: match, Err: err})
	return f
}

// Execute implements ports.QueryExecutor.
func (f *FakeExecutor) Execute(_ context.Context, query string, args ...any) (*ports.QueryResult, error) {
	f.Executed = append(f.Executed, ExecutedQuery{Query: query, Args: args})

	lowered := strings.ToLower(query)
	for _, r := range f.Responses {
		if !strings.Contains(lowered, strings.ToLower(r.Match)) {
			continue
		}
		if r.Arg != nil && !argsContain(args, r.Arg) {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return &ports.QueryResult{Rows: r.Rows, RowCount: len(r.Rows)}, nil
	}
	return nil, fmt.Errorf("no scripted response matches query: %s", query)
}

func argsContain(args []any, want any) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

// LastQuery returns the most recently executed query text.
func (f *FakeExecutor) LastQuery() string {
	if len(f.Executed) == 0 {
		return ""
	}
	return f.Executed[len(f.Executed)-1].Query
}

// QueriesMatching returns every executed query containing the fragment.
func (f *FakeExecutor) QueriesMatching(fragment string) []string {
	var out []string
	for _, q := range f.Executed {
		if strings.Contains(strings.ToLower(q.Query), strings.ToLower(fragment)) {
			out = append(out, q.Query)
		}
	}
	return out
}
