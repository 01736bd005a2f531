package lockguard

import (
	"errors"
	"sync"
)

var (
	// ErrUnbound はロックに紐付いていないガードを使った場合のエラー
	ErrUnbound = errors.New("lockguard: guard is not bound to a lock")
	// ErrReleased は解放済みのガードで一時解放しようとした場合のエラー
	ErrReleased = errors.New("lockguard: guard already released")
	// ErrShared は読み取りガードを一時解放しようとした場合のエラー
	ErrShared = errors.New("lockguard: temporary release of a shared lock")
)

// Guard はスコープに束縛されたロック
type Guard struct {
	l        sync.Locker
	shared   bool
	released bool
}

// Lock はロックを取得するまでブロックし、それを保持するガードを返す
func Lock(l sync.Locker) *Guard {
	if l == nil {
		panic(ErrUnbound)
	}
	l.Lock()
	return &Guard{l: l}
}

// Read は読み取りロックを取得する。読み取りガードは一時解放できない
func Read(rw *sync.RWMutex) *Guard {
	g := Lock(rw.RLocker())
	g.shared = true
	return g
}

// Write は書き込みロックを取得する
func Write(rw *sync.RWMutex) *Guard {
	return Lock(rw)
}

// Release はロックを解放する。2回目以降の呼び出しは何もしない
func (g *Guard) Release() {
	g.mustBeBound()
	if g.released {
		return
	}
	g.released = true
	g.l.Unlock()
}

// Held はガードがまだロックを保持しているかを返す
func (g *Guard) Held() bool {
	return g != nil && g.l != nil && !g.released
}

// Unlocked は fn の実行中だけ排他ロックを解放し、終了時に再取得する。
// fn が panic した場合も再取得してから伝播させる。
func (g *Guard) Unlocked(fn func()) {
	g.mustBeBound()
	if g.released {
		panic(ErrReleased)
	}
	if g.shared {
		panic(ErrShared)
	}
	r := Unlock(g.l)
	defer r.Restore()
	fn()
}

func (g *Guard) mustBeBound() {
	if g == nil || g.l == nil {
		panic(ErrUnbound)
	}
}

// Relock は一時的に解放したロックを再取得するためのガード
type Relock struct {
	l        sync.Locker
	restored bool
}

// Unlock は保持中のロックを解放し、Restore で再取得するガードを返す
func Unlock(l sync.Locker) *Relock {
	if l == nil {
		panic(ErrUnbound)
	}
	l.Unlock()
	return &Relock{l: l}
}

// Restore はロックを再取得する。2回目以降の呼び出しは何もしない
func (r *Relock) Restore() {
	if r == nil || r.l == nil {
		panic(ErrUnbound)
	}
	if r.restored {
		return
	}
	r.restored = true
	r.l.Lock()
}

// With はロックを保持したまま fn を実行する
func With(l sync.Locker, fn func()) {
	g := Lock(l)
	defer g.Release()
	fn()
}
