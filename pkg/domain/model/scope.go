// 指示: miu200521358
package model

import "github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"

// Scope は骨格の編集スコープを表す。構造編集と評価は排他。
type Scope int

const (
	// ScopeNone はスコープ外。
	ScopeNone Scope = iota
	// ScopeStructural は関節の追加・削除・親変更が可能なスコープ。
	ScopeStructural
	// ScopeEvaluation は姿勢評価とキーフレーム書き込みが可能なスコープ。
	ScopeEvaluation
)

// String はスコープ名を返す。
func (s Scope) String() string {
	switch s {
	case ScopeStructural:
		return "structural"
	case ScopeEvaluation:
		return "evaluation"
	default:
		return "none"
	}
}

// Scope は現在のスコープを返す。
func (s *Skeleton) Scope() Scope {
	return s.scope
}

// WithStructuralEditScope は構造編集スコープで fn を実行する。終了時は直前のスコープへ戻す。
func (s *Skeleton) WithStructuralEditScope(fn func() error) error {
	return s.withScope(ScopeStructural, fn)
}

// WithEvaluationScope は評価スコープで fn を実行する。終了時は直前のスコープへ戻す。
func (s *Skeleton) WithEvaluationScope(fn func() error) error {
	return s.withScope(ScopeEvaluation, fn)
}

func (s *Skeleton) withScope(scope Scope, fn func() error) error {
	prev := s.scope
	s.scope = scope
	defer func() {
		s.scope = prev
	}()
	if fn == nil {
		return nil
	}
	return fn()
}

// RequireEvaluable は構造編集中でないことを確認する。
func (s *Skeleton) RequireEvaluable() error {
	if s.scope == ScopeStructural {
		return merr.NewScopeError("構造編集中は評価できません: %s", s.Name)
	}
	return nil
}

func (s *Skeleton) requireStructural(operation string) error {
	if s.scope != ScopeStructural {
		return merr.NewScopeError("%sは構造編集スコープ内でのみ可能です: %s (scope=%s)", operation, s.Name, s.scope)
	}
	return nil
}
