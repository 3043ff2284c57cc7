// Package policy evaluates the branch-access rule every authenticated request
// must pass before it obtains a scope. The rule is a CEL expression over the
// token claims and the request line.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"hesap/internal/domain/auth"
)

// DefaultBranchPolicy admits any token bound to a branch.
const DefaultBranchPolicy = `claims.bid != ""`

// Request is the part of an HTTP request a policy may inspect.
type Request struct {
	Method string
	Path   string
}

// BranchPolicy is a compiled policy expression. It is safe for concurrent use.
type BranchPolicy struct {
	expr    string
	program cel.Program
}

// NewBranchPolicy compiles expr. An empty expression means DefaultBranchPolicy.
func NewBranchPolicy(expr string) (*BranchPolicy, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultBranchPolicy
	}

	env, err := cel.NewEnv(
		cel.Variable("claims", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("request", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("policy env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program policy %q: %w", expr, err)
	}
	return &BranchPolicy{expr: expr, program: program}, nil
}

// String returns the source expression.
func (p *BranchPolicy) String() string { return p.expr }

// Allow reports whether the claims may act on the request.
func (p *BranchPolicy) Allow(claims *auth.Claims, req Request) (bool, error) {
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	out, _, err := p.program.Eval(map[string]any{
		"claims": map[string]any{
			"uid":   claims.UserID,
			"bid":   claims.BranchID,
			"email": claims.Email,
			"roles": roles,
		},
		"request": map[string]string{
			"method": req.Method,
			"path":   req.Path,
		},
	})
	if err != nil {
		return false, fmt.Errorf("evaluate policy: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T", out.Value())
	}
	return allowed, nil
}
