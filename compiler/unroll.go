package compiler

import "github.com/alephium/alphvm/ast"

// unrollStmts recursively expands every LoopStmt in stmts into
// floor((End-Start)/Step) copies of its body, replacing Placeholder with
// Const(U256(i)) in each copy. VarDef, ReturnStmt, and nested loops
// anywhere inside a loop body are rejected outright; If/While bodies are
// recursed into, so a Loop nested inside an If/While is unrolled too.
func unrollStmts(stmts []ast.Stmt, cfg Config) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, st := range stmts {
		switch s := st.(type) {
		case *ast.LoopStmt:
			expanded, err := unrollLoop(s, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		case *ast.IfElseStmt:
			then, err := unrollStmts(s.Then, cfg)
			if err != nil {
				return nil, err
			}
			els, err := unrollStmts(s.Else, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.NewIfElse(s.Cond, then, els))
		case *ast.WhileStmt:
			body, err := unrollStmts(s.Body, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.NewWhile(s.Cond, body))
		default:
			out = append(out, st)
		}
	}
	return out, nil
}

func unrollLoop(loop *ast.LoopStmt, cfg Config) ([]ast.Stmt, error) {
	if loop.Step == 0 {
		return nil, errf(int(loop.ID()), "loop step must not be zero")
	}
	if err := checkLoopBody(loop.Body); err != nil {
		return nil, err
	}
	count := 0
	if loop.Step > 0 {
		if loop.End > loop.Start {
			count = (loop.End - loop.Start) / loop.Step
		}
	} else {
		if loop.Start > loop.End {
			count = (loop.Start - loop.End) / (-loop.Step)
		}
	}
	if count > cfg.LoopUnrollingLimit {
		return nil, errf(int(loop.ID()), "unrolled loop size %d exceeds loopUnrollingLimit %d", count, cfg.LoopUnrollingLimit)
	}
	var out []ast.Stmt
	i := loop.Start
	for n := 0; n < count; n++ {
		for _, st := range loop.Body {
			out = append(out, substituteStmt(st, i))
		}
		i += loop.Step
	}
	return out, nil
}

// checkLoopBody rejects VarDef, ReturnStmt, and nested loops anywhere inside
// a loop body, recursing through If/While so a violation buried in a
// conditional is still caught.
func checkLoopBody(body []ast.Stmt) error {
	for _, st := range body {
		switch s := st.(type) {
		case *ast.VarDefStmt:
			return errf(int(s.ID()), "VarDef is not allowed inside a loop body")
		case *ast.ReturnStmt:
			return errf(int(s.ID()), "return is not allowed inside a loop body")
		case *ast.LoopStmt:
			return errf(int(s.ID()), "nested loops are not allowed")
		case *ast.IfElseStmt:
			if err := checkLoopBody(s.Then); err != nil {
				return err
			}
			if err := checkLoopBody(s.Else); err != nil {
				return err
			}
		case *ast.WhileStmt:
			if err := checkLoopBody(s.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func substituteStmt(st ast.Stmt, i int) ast.Stmt {
	switch s := st.(type) {
	case *ast.AssignStmt:
		return ast.NewAssign(s.Target, substituteExpr(s.Value, i))
	case *ast.ExprStmt:
		return ast.NewExprStmt(substituteExpr(s.Call, i))
	case *ast.IfElseStmt:
		then := substituteStmts(s.Then, i)
		els := substituteStmts(s.Else, i)
		return ast.NewIfElse(substituteExpr(s.Cond, i), then, els)
	case *ast.WhileStmt:
		return ast.NewWhile(substituteExpr(s.Cond, i), substituteStmts(s.Body, i))
	case *ast.EmitEventStmt:
		args := make([]ast.Expr, len(s.Args))
		for j, a := range s.Args {
			args[j] = substituteExpr(a, i)
		}
		return ast.NewEmitEvent(s.EventName, args)
	case *ast.BuiltinCallStmt:
		args := make([]ast.Expr, len(s.Args))
		for j, a := range s.Args {
			args[j] = substituteExpr(a, i)
		}
		return ast.NewBuiltinCall(s.Name, args)
	default:
		return st
	}
}

func substituteStmts(stmts []ast.Stmt, i int) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for j, s := range stmts {
		out[j] = substituteStmt(s, i)
	}
	return out
}

func substituteExpr(e ast.Expr, i int) ast.Expr {
	switch x := e.(type) {
	case *ast.PlaceholderExpr:
		return ast.NewConst(u256FromInt(i))
	case *ast.ConstExpr:
		return ast.NewConst(x.Value)
	case *ast.VariableExpr:
		return ast.NewVariable(x.Name)
	case *ast.CreateArrayExpr:
		elems := make([]ast.Expr, len(x.Elems))
		for j, el := range x.Elems {
			elems[j] = substituteExpr(el, i)
		}
		return ast.NewCreateArray(elems)
	case *ast.ArrayElementExpr:
		return ast.NewArrayElement(substituteExpr(x.Array, i), x.Index)
	case *ast.UnaryExpr:
		return ast.NewUnary(x.Op, substituteExpr(x.X, i))
	case *ast.BinaryExpr:
		return ast.NewBinary(x.Op, substituteExpr(x.X, i), substituteExpr(x.Y, i))
	case *ast.ContractConvExpr:
		return ast.NewContractConv(x.ContractID, substituteExpr(x.X, i))
	case *ast.CallExpr:
		args := make([]ast.Expr, len(x.Args))
		for j, a := range x.Args {
			args[j] = substituteExpr(a, i)
		}
		return ast.NewCall(x.Method, args)
	case *ast.ContractCallExpr:
		args := make([]ast.Expr, len(x.Args))
		for j, a := range x.Args {
			args[j] = substituteExpr(a, i)
		}
		return ast.NewContractCall(substituteExpr(x.Receiver, i), x.Method, args)
	case *ast.ParenExpr:
		return ast.NewParen(substituteExpr(x.X, i))
	default:
		return e
	}
}
