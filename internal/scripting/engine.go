// Package scripting runs Lua scenarios against a handle allocator and a
// sparse set, so allocation patterns can be replayed without recompiling.
package scripting

import (
	"math"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/sparse"
)

// Engine wraps a single gopher-lua VM bound to one allocator and one sparse
// set. Single-goroutine access only.
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	alloc *handle.Allocator
	set   sparse.Set[lua.LValue]
}

// NewEngine creates a VM with the handle API installed as globals:
//
//	create() -> h | nil, err      destroy(h) -> true | false, err
//	valid(h) -> bool              index(h), generation(h) -> number
//	insert(h, v) -> bool          get(h) -> v | nil
//	remove(h) -> bool             len() -> number
//	live() -> number              log(msg)
//
// Handles are plain numbers; INVALID holds the nil handle.
func NewEngine(log *zap.Logger, opts ...handle.Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		vm:    lua.NewState(),
		log:   log,
		alloc: handle.NewAllocator(opts...),
	}
	e.vm.SetGlobal("INVALID", lua.LNumber(handle.Invalid))
	for name, fn := range map[string]lua.LGFunction{
		"create":     e.luaCreate,
		"destroy":    e.luaDestroy,
		"valid":      e.luaValid,
		"index":      e.luaIndex,
		"generation": e.luaGeneration,
		"insert":     e.luaInsert,
		"get":        e.luaGet,
		"remove":     e.luaRemove,
		"len":        e.luaLen,
		"live":       e.luaLive,
		"log":        e.luaLog,
	} {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return errors.Wrap(err, "lua")
	}
	return nil
}

// DoFile runs a Lua file.
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return errors.Wrapf(err, "lua %s", path)
	}
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// Global returns a global variable set by a script.
func (e *Engine) Global(name string) lua.LValue {
	return e.vm.GetGlobal(name)
}

// Stats reports the allocator occupancy and the sparse set length.
func (e *Engine) Stats() (handle.Stats, int) {
	return e.alloc.Stats(), e.set.Len()
}

func checkHandle(L *lua.LState, n int) handle.Handle {
	v := float64(L.CheckNumber(n))
	if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		L.ArgError(n, "handle must be an unsigned 32-bit integer")
		return handle.Invalid
	}
	return handle.Handle(uint32(v))
}

func (e *Engine) luaCreate(L *lua.LState) int {
	h, err := e.alloc.Create()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(h))
	return 1
}

func (e *Engine) luaDestroy(L *lua.LState) int {
	h := checkHandle(L, 1)
	if err := e.alloc.Destroy(h); err != nil {
		e.log.Warn("lua destroy rejected", zap.Stringer("handle", h), zap.Error(err))
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (e *Engine) luaValid(L *lua.LState) int {
	L.Push(lua.LBool(e.alloc.IsValid(checkHandle(L, 1))))
	return 1
}

func (e *Engine) luaIndex(L *lua.LState) int {
	L.Push(lua.LNumber(checkHandle(L, 1).Index()))
	return 1
}

func (e *Engine) luaGeneration(L *lua.LState) int {
	L.Push(lua.LNumber(checkHandle(L, 1).Generation()))
	return 1
}

func (e *Engine) luaInsert(L *lua.LState) int {
	h := checkHandle(L, 1)
	L.Push(lua.LBool(e.set.Insert(h, L.CheckAny(2))))
	return 1
}

func (e *Engine) luaGet(L *lua.LState) int {
	v, ok := e.set.Get(checkHandle(L, 1))
	if !ok {
		v = lua.LNil
	}
	L.Push(v)
	return 1
}

func (e *Engine) luaRemove(L *lua.LState) int {
	L.Push(lua.LBool(e.set.Remove(checkHandle(L, 1))))
	return 1
}

func (e *Engine) luaLen(L *lua.LState) int {
	L.Push(lua.LNumber(e.set.Len()))
	return 1
}

func (e *Engine) luaLive(L *lua.LState) int {
	L.Push(lua.LNumber(e.alloc.Len()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}
