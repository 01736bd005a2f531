// Package fatal reports unrecoverable internal failures.
//
// A fatal error means a synchronization invariant no longer holds. The
// default reporter logs the error and terminates the process; embedding
// applications may install their own Reporter, but must not let the failing
// component keep running.
package fatal

import (
	"errors"
	"fmt"
	"os"

	"glspool/internal/logger"
)

// ExitCode は致命的エラー時のプロセス終了コード
const ExitCode = 2

// ErrCorruptState は同期状態の不変条件が崩れたことを表す
var ErrCorruptState = errors.New("corrupt synchronization state")

// Error は致命的エラーの種別
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reporter は致命的エラーを受け取る
type Reporter func(err error)

var exit = os.Exit

// Default はエラーをログに出力してプロセスを終了する
func Default(err error) {
	logger.Error("", "%v", err)
	exit(ExitCode)
}

// Is は err が致命的エラーかを判定する
func Is(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
