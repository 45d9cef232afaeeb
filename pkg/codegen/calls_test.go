package codegen

import (
	"testing"

	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/token"
)

// buildFunction assembles a label node whose block contains the given
// statements in order.
func buildFunction(name string, stmts ...*ast.Node) *ast.Node {
	tok := token.Token{}
	var head *ast.Node
	for i := len(stmts) - 1; i >= 0; i-- {
		stmts[i].Next = head
		head = stmts[i]
	}
	return ast.NewLabel(tok, name, ast.NewBlock(tok, head))
}

func callTo(callee string) *ast.Node {
	tok := token.Token{}
	return ast.NewCall(tok, ast.NewLabelRef(tok, callee))
}

func TestRegisterCallEdges(t *testing.T) {
	main := buildFunction("main", callTo("foo"), callTo("bar"), callTo("foo"))
	foo := buildFunction("foo")
	bar := buildFunction("bar")
	main.Next = foo
	foo.Next = bar

	c := NewContext(config.NewConfig())
	c.registerCallEdges(main)

	// The duplicate (main, foo) pair registers only once.
	if len(c.edges) != 2 {
		t.Fatalf("edge count = %d; want 2", len(c.edges))
	}
	if c.edges[0].returnLabel != "__backto_main_0" {
		t.Errorf("first return label = %q; want __backto_main_0", c.edges[0].returnLabel)
	}
	if c.edges[1].returnLabel != "__backto_main_1" {
		t.Errorf("second return label = %q; want __backto_main_1", c.edges[1].returnLabel)
	}
	if c.callerEdgeCount("main") != 2 {
		t.Errorf("callerEdgeCount(main) = %d; want 2", c.callerEdgeCount("main"))
	}

	if edge := c.findEdge("main", "bar"); edge == nil || edge.returnLabel != "__backto_main_1" {
		t.Errorf("findEdge(main, bar) = %v; want __backto_main_1", edge)
	}
	if edge := c.findEdge("foo", "bar"); edge != nil {
		t.Errorf("findEdge(foo, bar) = %v; want nil", edge)
	}
}

func TestConsumeReturnEdge(t *testing.T) {
	main := buildFunction("main", callTo("foo"))
	helper := buildFunction("helper", callTo("foo"))
	foo := buildFunction("foo")
	main.Next = helper
	helper.Next = foo

	c := NewContext(config.NewConfig())
	c.registerCallEdges(main)

	// Edges consume in registration order, once each.
	label, ok := c.consumeReturnEdge("foo")
	if !ok || label != "__backto_main_0" {
		t.Errorf("first consume = %q %v; want __backto_main_0", label, ok)
	}
	label, ok = c.consumeReturnEdge("foo")
	if !ok || label != "__backto_helper_0" {
		t.Errorf("second consume = %q %v; want __backto_helper_0", label, ok)
	}
	if _, ok := c.consumeReturnEdge("foo"); ok {
		t.Errorf("third consume succeeded; want exhaustion")
	}
	if _, ok := c.consumeReturnEdge("nobody"); ok {
		t.Errorf("consume for uncalled function succeeded")
	}
}

func TestRegisterCallEdgesSkipsNilCallee(t *testing.T) {
	tok := token.Token{}
	main := buildFunction("main", ast.NewCall(tok, nil), callTo("foo"))
	foo := buildFunction("foo")
	main.Next = foo

	c := NewContext(config.NewConfig())
	c.registerCallEdges(main)

	if len(c.edges) != 1 || c.edges[0].callee != "foo" {
		t.Fatalf("edges = %v; want single edge to foo", c.edges)
	}
}
