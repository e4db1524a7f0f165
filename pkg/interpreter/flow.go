package interpreter

import "nix/pkg/bytecode"

// The resolver locates structural tokens by rescanning the program from the
// current position on every evaluation. Positions returned are token
// indices; callers land one past them.

// nextBranch finds the next Elif, Else or EndIf at the same nesting depth
// as the conditional token at pos.
func nextBranch(pb bytecode.Program, pos int) (int, error) {
	depth := 0
	for i := pos + 1; i < len(pb); i++ {
		switch pb[i].Op {
		case bytecode.OpIf:
			depth++
		case bytecode.OpElif, bytecode.OpElse:
			if depth == 0 {
				return i, nil
			}
		case bytecode.OpEndIf:
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, faultf(ErrInvalidJump, "no endif closes the conditional at %d", pos)
}

// endIf finds the EndIf closing the conditional that pos belongs to,
// stepping over sibling Elif and Else tokens.
func endIf(pb bytecode.Program, pos int) (int, error) {
	for {
		next, err := nextBranch(pb, pos)
		if err != nil {
			return 0, err
		}
		if pb[next].Op == bytecode.OpEndIf {
			return next, nil
		}
		pos = next
	}
}

// matchForward finds the close token balancing the open token at pos.
func matchForward(pb bytecode.Program, pos int, open, close bytecode.Opcode) (int, error) {
	depth := 0
	for i := pos + 1; i < len(pb); i++ {
		switch pb[i].Op {
		case open:
			depth++
		case close:
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, faultf(ErrInvalidJump, "no %s closes the %s at %d", close, pb[pos].Op, pos)
}

// matchBackward finds the open token balancing the close token at pos.
func matchBackward(pb bytecode.Program, pos int, open, close bytecode.Opcode) (int, error) {
	depth := 0
	for i := pos - 1; i >= 0; i-- {
		switch pb[i].Op {
		case close:
			depth++
		case open:
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, faultf(ErrInvalidJump, "no %s opens the %s at %d", open, pb[pos].Op, pos)
}

// loopExit finds the EndWhile of the loop whose While sits at pos.
func loopExit(pb bytecode.Program, pos int) (int, error) {
	return matchForward(pb, pos, bytecode.OpWhile, bytecode.OpEndWhile)
}

// loopHead finds the RunWhile marker of the loop whose EndWhile sits at pos.
func loopHead(pb bytecode.Program, pos int) (int, error) {
	return matchBackward(pb, pos, bytecode.OpRunWhile, bytecode.OpEndWhile)
}

// branch is the record of an entered if block
type branch struct {
	pos   int  // index of the If token
	taken bool // a branch of this conditional has run
	calls int  // call depth the If executed at
}

// leaveBranches closes the conditionals of the current call that do not
// contain target. A block contains the positions after its If up to and
// including its EndIf.
func (i *Interpreter) leaveBranches(target int) error {
	i.dropBranches()
	for {
		b, ok := i.branches.Peek()
		if !ok || b.calls != i.calls.Size() {
			return nil
		}
		end, err := endIf(i.pb, b.pos)
		if err != nil {
			return err
		}
		if b.pos < target && target <= end {
			return nil
		}
		i.branches.Pop()
	}
}

// dropBranches discards records left open by calls that already returned
func (i *Interpreter) dropBranches() {
	for {
		b, ok := i.branches.Peek()
		if !ok || b.calls <= i.calls.Size() {
			return
		}
		i.branches.Pop()
	}
}
