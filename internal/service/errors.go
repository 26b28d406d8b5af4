package service

import (
	"errors"
	"fmt"
)

// 错误分类，调用方用 errors.Is 判断
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// ValidationError 参数校验失败，Constraint 描述被违反的约束
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Constraint)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}

// unavailable 包装存储层错误，不重试也不吞掉
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}
