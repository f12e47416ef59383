package compiler

import (
	"github.com/tpplang/tppc/ast"
	"tinygo.org/x/go-llvm"
)

// compileCondition evaluates expr in the current block and tests it against
// zero.
func (c *Compiler) compileCondition(expr ast.Expression) llvm.Value {
	return c.toBool(c.compileScalar(expr))
}

// compileIf lowers se/senão. An arm that ends in a return does not fall
// through, and the merge block only exists when some arm reaches it.
func (c *Compiler) compileIf(s *ast.If) {
	cond := c.compileCondition(s.Cond)

	var thenBlock, elseBlock, mergeBlock llvm.BasicBlock
	hasMerge := false
	if s.HasElse {
		thenBlock, elseBlock = c.createIfElse(cond, "then", "else")
	} else {
		thenBlock, mergeBlock = c.createIfCont(cond, "then", "merge")
		hasMerge = true
	}

	c.enter(thenBlock)
	c.compileBlock(s.Then)
	if !c.fb.terminated {
		if !hasMerge {
			mergeBlock = c.newBlock("merge")
			hasMerge = true
		}
		c.br(mergeBlock)
	}

	if s.HasElse {
		c.enter(elseBlock)
		c.compileBlock(s.Else)
		if !c.fb.terminated {
			if !hasMerge {
				mergeBlock = c.newBlock("merge")
				hasMerge = true
			}
			c.br(mergeBlock)
		}
	}

	if !hasMerge {
		// both arms returned
		c.fb.terminated = true
		return
	}
	c.enter(mergeBlock)
}

// createIfElse emits a conditional branch and creates the then/else blocks
// in the current function.
func (c *Compiler) createIfElse(cond llvm.Value, ifName, elseName string) (llvm.BasicBlock, llvm.BasicBlock) {
	ifBlock := c.newBlock(ifName)
	elseBlock := c.newBlock(elseName)
	c.condBr(cond, ifBlock, elseBlock)
	return ifBlock, elseBlock
}

// createIfCont emits a conditional branch and creates if/cont blocks
// in the current function.
func (c *Compiler) createIfCont(cond llvm.Value, ifName, contName string) (llvm.BasicBlock, llvm.BasicBlock) {
	ifBlock := c.newBlock(ifName)
	contBlock := c.newBlock(contName)
	c.condBr(cond, ifBlock, contBlock)
	return ifBlock, contBlock
}
