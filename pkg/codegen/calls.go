package codegen

import (
	"fmt"

	"github.com/casm-lang/casmc/pkg/ast"
)

// callEdge records one discovered (caller, callee) pair. The callee's
// epilogue jumps back through returnLabel at most once per run.
type callEdge struct {
	caller      string
	callee      string
	returnLabel string
	consumed    bool
}

// registerCallEdges is the pre-emission pass over every function body.
// Each distinct (caller, callee) pair gets one edge; the return label is
// deterministic in the caller name and that caller's edge count.
func (c *Context) registerCallEdges(prog *ast.Node) {
	for fn := prog; fn != nil; fn = fn.Next {
		if fn.Kind != ast.Label || fn.Left == nil || fn.Left.Kind != ast.Block {
			continue
		}
		caller := fn.Text
		for stmt := fn.Left.Left; stmt != nil; stmt = stmt.Next {
			if stmt.Kind != ast.Call || stmt.Left == nil {
				continue
			}
			callee := stmt.Left.Text
			if c.findEdge(caller, callee) != nil {
				continue
			}
			c.edges = append(c.edges, callEdge{
				caller:      caller,
				callee:      callee,
				returnLabel: fmt.Sprintf("__backto_%s_%d", caller, c.callerEdgeCount(caller)),
			})
		}
	}
}

func (c *Context) callerEdgeCount(caller string) int {
	count := 0
	for i := range c.edges {
		if c.edges[i].caller == caller {
			count++
		}
	}
	return count
}

func (c *Context) findEdge(caller, callee string) *callEdge {
	for i := range c.edges {
		if c.edges[i].caller == caller && c.edges[i].callee == callee {
			return &c.edges[i]
		}
	}
	return nil
}

// consumeReturnEdge finds the first unconsumed edge targeting fn in
// registration order and marks it consumed. Unconsumed leftovers are
// fine: a function emitted before its caller, or one nobody calls,
// simply keeps its ret epilogue.
func (c *Context) consumeReturnEdge(fn string) (string, bool) {
	for i := range c.edges {
		edge := &c.edges[i]
		if edge.callee == fn && !edge.consumed {
			edge.consumed = true
			return edge.returnLabel, true
		}
	}
	return "", false
}
