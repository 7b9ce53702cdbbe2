package sqlbuilder

import "testing"

func TestArgPlaceholders(t *testing.T) {
	q := New(PlaceholderQuestion)
	if got := q.Arg(1) + q.Arg("x"); got != "??" {
		t.Fatalf("question placeholders = %q", got)
	}

	d := New(PlaceholderDollar)
	d.Arg(1)
	if got := d.List([]int64{7, 8, 9}); got != "$2, $3, $4" {
		t.Fatalf("List = %q", got)
	}
	if d.Len() != 4 {
		t.Fatalf("Len = %d, want 4", d.Len())
	}
	if d.Args()[3] != int64(9) {
		t.Fatalf("last arg = %v", d.Args()[3])
	}
}

func TestChunk(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5}
	chunks := Chunk(ids, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 || chunks[2][0] != 5 {
		t.Fatalf("Chunk(5, 2) = %v", chunks)
	}
	if got := Chunk(nil, 400); len(got) != 0 {
		t.Fatalf("Chunk(nil) = %v", got)
	}
	if got := Chunk(ids, 0); len(got) != 1 || len(got[0]) != 5 {
		t.Fatalf("Chunk(size 0) = %v", got)
	}
}
