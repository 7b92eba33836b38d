//go:build e2e

package web

import (
	"context"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func TestUIはスキャン結果をエスケープして表示する(t *testing.T) {
	t.Parallel()

	if !hasBrowser() {
		t.Skip("Chrome/Chromiumが見つからないためスキップします")
	}

	srv := httptest.NewServer(newTestServer(t, nil))
	t.Cleanup(srv.Close)

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// chromedp navigation can take some time in CI environments.
	ctx, cancel = context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	var summary, viewHTML, cellHTML string
	var nodeCount int
	err := chromedp.Run(ctx,
		chromedp.Navigate(srv.URL),
		chromedp.WaitReady(`#src`, chromedp.ByID),
		chromedp.SetValue(`#src`, "x = \"<img src=x onerror=alert(1)>\";\n<b>]", chromedp.ByID),
		chromedp.Click(`#f button`, chromedp.ByQuery),
		chromedp.WaitVisible(`#out p`, chromedp.ByQuery),
		chromedp.Text(`#out p`, &summary, chromedp.ByQuery),
		chromedp.InnerHTML(`#view`, &viewHTML, chromedp.ByID),
		chromedp.InnerHTML(`#out tbody tr td:nth-child(3)`, &cellHTML, chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelectorAll('#view img, #out img, #out script').length`, &nodeCount),
	)
	if err != nil {
		t.Fatalf("chromedpの操作に失敗しました: %v", err)
	}

	if !strings.Contains(summary, "1 pairs, 1 unmatched") {
		t.Fatalf("サマリが期待値と異なります: %q", summary)
	}
	if !strings.Contains(viewHTML, "&lt;img") {
		t.Fatalf("ソース表示がエスケープされていません: %q", viewHTML)
	}
	if !strings.Contains(viewHTML, `<span class="err">]</span>`) {
		t.Fatalf("未対応の括弧が強調されていません: %q", viewHTML)
	}
	if cellHTML != "<code>]</code>" {
		t.Fatalf("括弧セルが期待値と異なります: %q", cellHTML)
	}
	if nodeCount != 0 {
		t.Fatalf("危険なノードが挿入されています: %d", nodeCount)
	}
}

func hasBrowser() bool {
	candidates := []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}
