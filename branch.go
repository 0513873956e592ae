package patio

import "fmt"

// MaxBranches is the number of alternatives a Branch can choose between.
const MaxBranches = 8

type branchPattern[S, T any] struct {
	tag  int
	alts []Pattern[S, T]
}

// Branch returns a pattern that runs alts[tag]. The choice is fixed when the branch
// is built: binding binds only the selected alternative and polling forwards to it.
//
// Branch panics unless 1 <= len(alts) <= MaxBranches and tag indexes alts.
func Branch[S, T any](tag int, alts ...Pattern[S, T]) Pattern[S, T] {
	if len(alts) == 0 || len(alts) > MaxBranches {
		panic(fmt.Sprintf("patio: branch needs 1 to %d alternatives, got %d", MaxBranches, len(alts)))
	}
	if tag < 0 || tag >= len(alts) {
		panic(fmt.Sprintf("patio: branch tag %d out of range [0:%d]", tag, len(alts)))
	}
	return branchPattern[S, T]{tag: tag, alts: alts}
}

// If is the two way branch: yes when cond holds, no otherwise.
func If[S, T any](cond bool, yes, no Pattern[S, T]) Pattern[S, T] {
	if cond {
		return Branch(0, yes, no)
	}
	return Branch(1, yes, no)
}

func (b branchPattern[S, T]) Bind(s S) Operation[S, T] {
	return &branchOp[S, T]{op: b.alts[b.tag].Bind(s)}
}

func (b branchPattern[S, T]) Size() int { return sumSizes(sizerOf(b.alts[b.tag])) }

type branchOp[S, T any] struct {
	op   Operation[S, T]
	done bool
}

func (op *branchOp[S, T]) Poll() (S, T, error) {
	if op.done {
		polledAfterCompletion("branch")
	}
	s, v, err := op.op.Poll()
	if !IsWouldBlock(err) {
		op.done = true
	}
	return s, v, err
}
