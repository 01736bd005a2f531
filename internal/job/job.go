// Package job defines the unit of work executed by a pool.
package job

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
)

var (
	// ErrNilFunc はエントリポイントが nil の場合のエラー
	ErrNilFunc = errors.New("job: nil entry point")
	// ErrNilContext はコンテキスト値が nil の場合のエラー
	ErrNilContext = errors.New("job: nil context")
)

// Func はジョブのエントリポイント。戻り値はプールからは解釈されない
type Func func(arg any) any

// Job はエントリポイントとコンテキスト値の組。
// コピーは参照の組を複製するだけで、作業そのものは複製しない。
type Job struct {
	ID  uuid.UUID
	fn  Func
	arg any
}

// New は新しいジョブを作成する
func New(fn Func, arg any) (Job, error) {
	if fn == nil {
		return Job{}, ErrNilFunc
	}
	if isNil(arg) {
		return Job{}, ErrNilContext
	}
	return Job{ID: uuid.New(), fn: fn, arg: arg}, nil
}

// FromFunc はクロージャからジョブを作成する。状態はクロージャ自身が保持する
func FromFunc(f func()) (Job, error) {
	if f == nil {
		return Job{}, ErrNilFunc
	}
	return New(func(any) any {
		f()
		return nil
	}, struct{}{})
}

// Run はエントリポイントをコンテキスト値で呼び出し、その戻り値を返す
func (j Job) Run() any {
	return j.fn(j.arg)
}

// Arg はコンテキスト値を返す
func (j Job) Arg() any {
	return j.arg
}

// Validate はジョブが実行可能かを検証する
func (j Job) Validate() error {
	if j.fn == nil {
		return ErrNilFunc
	}
	if isNil(j.arg) {
		return ErrNilContext
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
