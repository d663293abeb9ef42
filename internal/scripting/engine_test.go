package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DangerosoDavo/slotengine/handle"
)

func newEngine(t *testing.T, opts ...handle.Option) *Engine {
	t.Helper()
	e := NewEngine(zap.NewNop(), opts...)
	t.Cleanup(e.Close)
	return e
}

func TestScriptDetectsStaleHandle(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.DoString(`
		local h0 = create()
		local h1 = create()
		destroy(h0)
		local h2 = create()
		stale_valid = valid(h0)
		fresh_valid = valid(h2)
		same_index = index(h2) == index(h0)
		gen = generation(h2)
		ok, err = destroy(h0)
	`))

	assert.Equal(t, lua.LFalse, e.Global("stale_valid"))
	assert.Equal(t, lua.LTrue, e.Global("fresh_valid"))
	assert.Equal(t, lua.LTrue, e.Global("same_index"))
	assert.Equal(t, lua.LNumber(1), e.Global("gen"))
	assert.Equal(t, lua.LFalse, e.Global("ok"))
	assert.IsType(t, lua.LString(""), e.Global("err"))

	stats, _ := e.Stats()
	assert.Equal(t, 2, stats.Live)
}

func TestScriptSparseSet(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.DoString(`
		local a, b, c = create(), create(), create()
		insert(a, "a"); insert(b, "b"); insert(c, "c")
		first = insert(a, "again")
		remove(a)
		after_remove = len()
		got_b = get(b)
		got_a = get(a)
	`))

	assert.Equal(t, lua.LFalse, e.Global("first"))
	assert.Equal(t, lua.LNumber(2), e.Global("after_remove"))
	assert.Equal(t, lua.LString("b"), e.Global("got_b"))
	assert.Equal(t, lua.LNil, e.Global("got_a"))
}

func TestScriptInsertIgnoresReservedIndex(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.DoString(`
		reserved = 4294963201 -- index 0xFFFFF, generation 1
		added = insert(reserved, "x")
		got = get(reserved)
		size = len()
	`))

	assert.Equal(t, lua.LFalse, e.Global("added"))
	assert.Equal(t, lua.LNil, e.Global("got"))
	assert.Equal(t, lua.LNumber(0), e.Global("size"))
}

func TestScriptExhaustion(t *testing.T) {
	e := newEngine(t, handle.WithMaxSlots(1))
	require.NoError(t, e.DoString(`
		create()
		h, err = create()
		invalid = INVALID
	`))
	assert.Equal(t, lua.LNil, e.Global("h"))
	assert.NotEqual(t, lua.LNil, e.Global("err"))
	assert.Equal(t, lua.LNumber(handle.Invalid), e.Global("invalid"))
}

func TestScriptRejectsNonHandleArguments(t *testing.T) {
	e := newEngine(t)
	assert.Error(t, e.DoString(`valid(-1)`))
	assert.Error(t, e.DoString(`valid(1.5)`))
	assert.Error(t, e.DoString(`valid("x")`))
}

func TestDoFileAndLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := NewEngine(zap.New(core))
	defer e.Close()

	path := filepath.Join(t.TempDir(), "churn.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
		for i = 1, 100 do
			local h = create()
			insert(h, i)
			if i % 2 == 0 then
				remove(h)
				destroy(h)
			end
		end
		log("done " .. live())
	`), 0o600))

	require.NoError(t, e.DoFile(path))
	stats, setLen := e.Stats()
	assert.Equal(t, 50, stats.Live)
	assert.Equal(t, 50, setLen)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "done 50", logs.All()[0].Message)
}
