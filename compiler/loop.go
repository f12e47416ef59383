package compiler

import (
	"github.com/tpplang/tppc/ast"
)

// compileRepeat lowers repita/até. The body runs at least once; loop_val
// tests the condition and leaves the loop when it holds.
//
//	loop:     body; br loop_val
//	loop_val: %c = ...; br i1 %c, label %loop_end, label %loop
//	loop_end: ...
func (c *Compiler) compileRepeat(s *ast.Repeat) {
	body := c.newBlock("loop")
	c.br(body)
	c.enter(body)
	c.compileBlock(s.Body)
	if c.fb.terminated {
		// the body always returns: nothing after the loop is reachable
		return
	}

	val := c.newBlock("loop_val")
	c.br(val)
	c.enter(val)
	cond := c.compileCondition(s.Cond)

	end := c.newBlock("loop_end")
	c.condBr(cond, end, body)
	c.enter(end)
}
