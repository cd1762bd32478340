package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"construct-authz/core/internal/policy/domain"
)

// The operation-to-capability table is an embedded, deploy-time Rego module:
// auditable in one place, compiled at startup, never authored at runtime.
const requirementRegoPolicy = `package construct.authz

default view_capability = ""

view_capability = "can_view_project" if {
	input.kind == "project"
}

view_capability = "can_view_scope" if {
	input.kind == "scope_item"
}

view_capability = "can_view_scope" if {
	input.kind == "invoice"
}

view_capability = "can_view_tasks" if {
	input.kind == "task"
}

view_capability = "can_view_project" if {
	input.kind == "document"
}
`

// fallbackViewCapability mirrors the Rego table. Used when the module fails to
// compile or evaluate so a policy-engine fault can only narrow access, never
// widen it (unknown kinds map to "" which no record satisfies).
var fallbackViewCapability = map[domain.ResourceKind]string{
	domain.KindProject:   "can_view_project",
	domain.KindScopeItem: "can_view_scope",
	domain.KindInvoice:   "can_view_scope",
	domain.KindTask:      "can_view_tasks",
	domain.KindDocument:  "can_view_project",
}

// Rules resolves which cached capability an operation on a resource kind
// requires. The table is resolved through the embedded Rego module once per
// kind at construction; lookups afterwards are map reads.
type Rules struct {
	viewCapability map[domain.ResourceKind]string
}

// NewRules compiles the embedded requirement module and resolves the
// capability table. On compile or evaluation failure it falls back to the
// static table and logs; it never returns a nil Rules.
func NewRules(ctx context.Context) *Rules {
	table, err := resolveRegoTable(ctx)
	if err != nil {
		log.Printf("policy: requirement module unavailable, using fallback table: %v", err)
		table = fallbackViewCapability
	}
	return &Rules{viewCapability: table}
}

// ViewCapability returns the cached-capability name required to read the kind,
// or "" for kinds with no cached grant (which the evaluator denies).
func (r *Rules) ViewCapability(kind domain.ResourceKind) string {
	return r.viewCapability[kind]
}

func resolveRegoTable(ctx context.Context) (map[domain.ResourceKind]string, error) {
	compiler, err := ast.CompileModules(map[string]string{"requirements.rego": requirementRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile requirement module: %w", err)
	}
	kinds := []domain.ResourceKind{
		domain.KindProject, domain.KindScopeItem, domain.KindInvoice,
		domain.KindTask, domain.KindDocument,
	}
	table := make(map[domain.ResourceKind]string, len(kinds))
	for _, kind := range kinds {
		q := rego.New(
			rego.Query("data.construct.authz.view_capability"),
			rego.Compiler(compiler),
			rego.Input(map[string]interface{}{"kind": string(kind)}),
		)
		rs, err := q.Eval(ctx)
		if err != nil {
			return nil, fmt.Errorf("eval requirement for kind %s: %w", kind, err)
		}
		if len(rs) == 0 || len(rs[0].Expressions) == 0 {
			return nil, fmt.Errorf("requirement query returned no result for kind %s", kind)
		}
		capability, ok := rs[0].Expressions[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("requirement for kind %s is not a string", kind)
		}
		if capability != "" {
			table[kind] = capability
		}
	}
	return table, nil
}
