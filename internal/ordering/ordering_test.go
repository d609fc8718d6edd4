package ordering

import (
	"reflect"
	"testing"
)

func TestInsertAt(t *testing.T) {
	ids := []string{"a", "b", "c"}

	got := InsertAt(ids, "x", 1)
	want := []string{"a", "x", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InsertAt middle: got %v, want %v", got, want)
	}

	got = InsertAt(ids, "x", 0)
	want = []string{"x", "a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InsertAt front: got %v, want %v", got, want)
	}

	got = InsertAt(ids, "x", 3)
	want = []string{"a", "b", "c", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InsertAt end: got %v, want %v", got, want)
	}
}

func TestInsertAtClampsIndex(t *testing.T) {
	ids := []string{"a", "b"}

	got := InsertAt(ids, "x", 99)
	want := []string{"a", "b", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("index beyond end should append: got %v, want %v", got, want)
	}

	got = InsertAt(ids, "x", -5)
	want = []string{"x", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("negative index should prepend: got %v, want %v", got, want)
	}
}

func TestInsertAtMovesExistingID(t *testing.T) {
	ids := []string{"a", "b", "c"}

	// Moving an id already in the list must not duplicate it.
	got := InsertAt(ids, "c", 0)
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("move to front: got %v, want %v", got, want)
	}

	got = InsertAt(ids, "a", 2)
	want = []string{"b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("move to end: got %v, want %v", got, want)
	}

	// Re-inserting at the current slot is a no-op.
	got = InsertAt(ids, "b", 1)
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("same-slot insert: got %v, want %v", got, ids)
	}
}

func TestInsertAtEmpty(t *testing.T) {
	got := InsertAt(nil, "x", 0)
	want := []string{"x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("insert into empty: got %v, want %v", got, want)
	}
}

func TestRemove(t *testing.T) {
	ids := []string{"a", "b", "c"}

	got := Remove(ids, "b")
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Remove: got %v, want %v", got, want)
	}

	got = Remove(ids, "zzz")
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("Remove of absent id must keep order: got %v, want %v", got, ids)
	}

	if got := Remove(nil, "a"); len(got) != 0 {
		t.Errorf("Remove from empty: got %v", got)
	}
}
