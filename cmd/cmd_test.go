package cmd

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/valpere/blockstrings/internal/block"
	"github.com/valpere/blockstrings/internal/parser"
	"github.com/valpere/blockstrings/internal/store"
)

const pageJSON = `[
  {
    "blockName": "core/heading",
    "attrs": {"level": 2},
    "innerBlocks": [],
    "innerHTML": "<h2 class=\"wp-block-heading\">Welcome</h2>",
    "innerContent": ["<h2 class=\"wp-block-heading\">Welcome</h2>"]
  },
  {
    "blockName": "core/group",
    "attrs": {},
    "innerBlocks": [
      {
        "blockName": "core/paragraph",
        "attrs": {},
        "innerBlocks": [],
        "innerHTML": "<p>Read the <a href=\"https://wordpress.org/news/\">news</a>.</p>",
        "innerContent": ["<p>Read the <a href=\"https://wordpress.org/news/\">news</a>.</p>"]
      },
      {
        "blockName": "core/paragraph",
        "attrs": {},
        "innerBlocks": [],
        "innerHTML": "<p>Welcome</p>",
        "innerContent": ["<p>Welcome</p>"]
      }
    ],
    "innerHTML": "<div class=\"wp-block-group\"></div>",
    "innerContent": ["<div class=\"wp-block-group\">", null, null, "</div>"]
  },
  {
    "blockName": "core/spacer",
    "attrs": {"height": "40px"},
    "innerBlocks": [],
    "innerHTML": "<div style=\"height:40px\" aria-hidden=\"true\"></div>",
    "innerContent": ["<div style=\"height:40px\" aria-hidden=\"true\"></div>"]
  }
]`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func loadPage(t *testing.T) []*block.Block {
	t.Helper()
	blocks, err := readBlocks(writeFile(t, "page.json", pageJSON))
	if err != nil {
		t.Fatalf("readBlocks failed: %v", err)
	}
	return blocks
}

func TestRunExtract(t *testing.T) {
	got, err := runExtract(context.Background(), parser.DefaultRegistry(), loadPage(t), nil, "page.json")
	if err != nil {
		t.Fatalf("runExtract failed: %v", err)
	}
	want := []string{"Welcome", `Read the <a href="https://wordpress.org/news/">news</a>.`, "Welcome"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if u := unique(got); len(u) != 2 {
		t.Errorf("expected 2 unique strings, got %q", u)
	}
}

func TestRunExtract_Records(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := runExtract(ctx, parser.DefaultRegistry(), loadPage(t), db, "page.json"); err != nil {
		t.Fatalf("runExtract failed: %v", err)
	}
	pending, err := db.Pending(ctx, "es")
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 distinct pending strings, got %q", pending)
	}
}

func TestRunReplace_FileAndMemory(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.SaveTranslation(ctx, "Welcome", "es", "Bienvenido"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	para := `Read the <a href="https://wordpress.org/news/">news</a>.`
	fileMap := map[string]string{
		"Welcome": "Bienvenidos",
		para:      `Lea las <a href="https://es.wordpress.org/news/">noticias</a>.`,
	}

	blocks := loadPage(t)
	out, n, err := runReplace(ctx, parser.DefaultRegistry(), blocks, db, "es", fileMap)
	if err != nil {
		t.Fatalf("runReplace failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 replacements, got %d", n)
	}

	if got := out[0].InnerHTML; got != `<h2 class="wp-block-heading">Bienvenidos</h2>` {
		t.Errorf("heading: file entry should override memory, got %q", got)
	}
	if got := out[1].InnerBlocks[0].InnerHTML; got != `<p>Lea las <a href="https://es.wordpress.org/news/">noticias</a>.</p>` {
		t.Errorf("paragraph not rewritten: %q", got)
	}
	if out[1].InnerContent[1] != nil || out[1].InnerContent[2] != nil {
		t.Errorf("nested references lost: %v", out[1].InnerContent)
	}
	if out[2].InnerHTML != blocks[2].InnerHTML {
		t.Errorf("unparsed block changed: %q", out[2].InnerHTML)
	}
}

func TestRunReplace_MemoryOnly(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.SaveTranslation(ctx, "Welcome", "uk", "Ласкаво просимо"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	out, _, err := runReplace(ctx, parser.DefaultRegistry(), loadPage(t), db, "uk", nil)
	if err != nil {
		t.Fatalf("runReplace failed: %v", err)
	}
	if got := out[1].InnerBlocks[1].InnerHTML; got != "<p>Ласкаво просимо</p>" {
		t.Errorf("unexpected %q", got)
	}
}

func TestReadBlocks_Malformed(t *testing.T) {
	path := writeFile(t, "bad.json", `[{"blockName":"core/paragraph","innerHTML":"<p>x</p>"}]`)
	if _, err := readBlocks(path); err == nil {
		t.Error("expected error for block without innerContent")
	}
}

func TestReadTranslations(t *testing.T) {
	path := writeFile(t, "es.json", `{"Hello": "Hola", "$5": "5 $"}`)
	m, err := readTranslations(path)
	if err != nil {
		t.Fatalf("readTranslations failed: %v", err)
	}
	if m["Hello"] != "Hola" || m["$5"] != "5 $" {
		t.Errorf("unexpected map %v", m)
	}

	if _, err := readTranslations(writeFile(t, "bad.json", `["not", "a", "map"]`)); err == nil {
		t.Error("expected error for non-object translations file")
	}
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := writeOutput(path, []byte(`["a"]`)); err != nil {
		t.Fatalf("writeOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "[\"a\"]\n" {
		t.Errorf("unexpected content %q", data)
	}
}
