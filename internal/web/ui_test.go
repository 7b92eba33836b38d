package web

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dop251/goja"

	"github.com/phyten/bracketx/internal/bracket"
)

func newUIRuntime(t *testing.T) *goja.Runtime {
	t.Helper()
	vm := goja.New()
	if _, err := vm.RunString(scriptJS); err != nil {
		t.Fatalf("ui.js の評価に失敗しました: %v", err)
	}
	return vm
}

func callString(t *testing.T, vm *goja.Runtime, name string, args ...any) string {
	t.Helper()
	fn, ok := goja.AssertFunction(vm.Get(name))
	if !ok {
		t.Fatalf("%s が関数ではありません", name)
	}
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = vm.ToValue(a)
	}
	v, err := fn(goja.Undefined(), vals...)
	if err != nil {
		t.Fatalf("%s の呼び出しに失敗しました: %v", name, err)
	}
	return v.String()
}

// jsValue parses v's JSON form inside vm so the script sees plain objects.
func jsValue(t *testing.T, vm *goja.Runtime, v any) goja.Value {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	parsed, err := vm.RunString("(" + string(raw) + ")")
	if err != nil {
		t.Fatalf("JSON の評価に失敗しました: %v", err)
	}
	return parsed
}

func TestEscはHTML特殊文字をエスケープする(t *testing.T) {
	vm := newUIRuntime(t)
	got := callString(t, vm, "esc", `<img src=x onerror="alert('1')"> & more`)
	want := "&lt;img src=x onerror=&quot;alert(&#39;1&#39;)&quot;&gt; &amp; more"
	if got != want {
		t.Fatalf("esc の結果が一致しません:\n got=%q\nwant=%q", got, want)
	}
	if got := callString(t, vm, "esc", nil); got != "" {
		t.Fatalf("null が空文字になりません: %q", got)
	}
}

func TestRenderは未対応の括弧を1始まりで表示する(t *testing.T) {
	vm := newUIRuntime(t)
	coll := bracket.Match("ok()\n  <x](", bracket.Generic)
	got := callString(t, vm, "render", jsValue(t, vm, coll))

	if !strings.Contains(got, "1 pairs, 3 unmatched, max depth 0") {
		t.Fatalf("サマリが期待値と異なります: %s", got)
	}
	if !strings.Contains(got, "<td>2</td><td>5</td><td><code>]</code></td><td>square</td><td>type_mismatch (expected angle, found square)</td>") {
		t.Fatalf("型不一致の行が見つかりません: %s", got)
	}
	if !strings.Contains(got, "<code>&lt;</code>") {
		t.Fatalf("括弧文字がエスケープされていません: %s", got)
	}
	if !strings.Contains(got, "<td>missing_closing</td>") {
		t.Fatalf("閉じ括弧不足が表示されていません: %s", got)
	}
}

func TestRenderはエラー応答を表示する(t *testing.T) {
	vm := newUIRuntime(t)
	got := callString(t, vm, "render", jsValue(t, vm, map[string]string{"error": "bad <input>"}))
	if got != `<p class="bad">bad &lt;input&gt;</p>` {
		t.Fatalf("エラー表示が期待値と異なります: %q", got)
	}
}

func TestHighlightはバイトオフセットで括弧を色付けする(t *testing.T) {
	vm := newUIRuntime(t)
	src := "é(\"<\")]"
	coll := bracket.Match(src, bracket.Generic)
	got := callString(t, vm, "highlight", src, jsValue(t, vm, coll))

	want := `é<span class="lvl-0">(</span>&quot;&lt;&quot;<span class="lvl-0">)</span><span class="err">]</span>`
	if got != want {
		t.Fatalf("ハイライト結果が一致しません:\n got=%s\nwant=%s", got, want)
	}
}
