package cache

import (
	"os"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

func TestMemCacheMissThenHit(t *testing.T) {
	c := NewMemCache()
	if _, ok := c.Get("h1", "d1"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put("h1", "d1", node.Values{"result": 42})
	v, ok := c.Get("h1", "d1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if v["result"] != 42 {
		t.Errorf("expected result=42, got %v", v["result"])
	}
}

func TestMemCacheKeysAreComposite(t *testing.T) {
	c := NewMemCache()
	c.Put("h1", "d1", node.Values{"x": 1})
	if _, ok := c.Get("h1", "d2"); ok {
		t.Error("expected distinct input digest to miss")
	}
	if _, ok := c.Get("h2", "d1"); ok {
		t.Error("expected distinct node hash to miss")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	c.Put("h1", "d1", node.Values{"result": "ok"})

	v, ok := c.Get("h1", "d1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if v["result"] != "ok" {
		t.Errorf("expected result=ok, got %v", v["result"])
	}
}

func TestDiskCacheMissingEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if _, ok := c.Get("missing", "digest"); ok {
		t.Error("expected miss for unwritten entry")
	}
}

func TestNewDiskCacheCreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/path"
	if _, err := NewDiskCache(dir); err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("expected directory to be created at %s", dir)
	}
}
