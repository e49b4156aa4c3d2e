package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/idilsaglam/itemboard/internal/model"
	"github.com/idilsaglam/itemboard/internal/storage"
)

func TestListMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "items.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	items, err := s.ListItems(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %#v", items)
	}
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "items.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	a, err := s.CreateItem(ctx, "A")
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := s.CreateItem(ctx, "B")
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}

	reopened, _ := Open(path)
	items, err := reopened.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.Item{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("items = %#v", items)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "items.json"))
	if _, err := s.CreateItem(context.Background(), ""); !errors.Is(err, storage.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestListSortsByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(`[{"id":3,"name":"C"},{"id":1,"name":"A"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := Open(path)
	items, err := s.ListItems(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items[0].ID != 1 || items[1].ID != 3 {
		t.Fatalf("not sorted: %#v", items)
	}
}

func TestPingReportsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := Open(path)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on corrupt file")
	}
}
