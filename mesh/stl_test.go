package mesh

import (
	"bytes"
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSTLWriteReadback(t *testing.T) {
	const tol = 1e-6 // STL stores float32.
	input := []r3.Triangle{
		{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0.5}, {X: 0, Y: 1, Z: 0}},
	}
	var b bytes.Buffer
	if err := WriteSTL(&b, input); err != nil {
		t.Fatal(err)
	}
	output, err := ReadSTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	if len(output) != len(input) {
		t.Fatalf("triangle count: got %d, want %d", len(output), len(input))
	}
	for i, want := range input {
		for j := range want {
			got := output[i][j]
			if r3.Norm(r3.Sub(got, want[j])) > tol {
				t.Errorf("triangle %d vertex %d: got %v, want %v", i, j, got, want[j])
			}
		}
	}
}

func TestSTLEmptyWrite(t *testing.T) {
	var b bytes.Buffer
	if err := WriteSTL(&b, nil); err == nil {
		t.Error("expected error writing empty model")
	}
}

func TestSTLNormalMismatch(t *testing.T) {
	tri := []r3.Triangle{
		{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
	}
	var b bytes.Buffer
	if err := WriteSTL(&b, tri); err != nil {
		t.Fatal(err)
	}
	// Corrupt the stored normal, leaving vertices intact.
	raw := b.Bytes()
	put3F32(raw[84:], [3]float32{1, 0, 0})
	got, err := ReadSTL(bytes.NewReader(raw))
	if !errors.Is(err, ErrNormalMismatch) {
		t.Fatalf("got err %v, want ErrNormalMismatch", err)
	}
	if len(got) != 1 {
		t.Errorf("triangles should still be returned alongside the mismatch error, got %d", len(got))
	}
}

func TestSTLRejectsGarbageHeader(t *testing.T) {
	if _, err := ReadSTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("expected error for truncated header")
	}
	if _, err := ReadSTL(bytes.NewReader(make([]byte, 84))); err == nil {
		t.Error("expected error for zero triangle count")
	}
}
