package pool

import (
	"testing"

	"github.com/joshuapare/poolkit/pool/block"
)

func BenchmarkAlloc_Small(b *testing.B) {
	p, err := New(nil, WithBlockConfig(block.ConfigSingleOwner))
	if err != nil {
		b.Fatal(err)
	}
	defer p.Destroy()

	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		if _, err := p.Alloc(64); err != nil {
			b.Fatal(err)
		}
		if i%1000 == 999 {
			_ = p.Clear()
		}
	}
}

func BenchmarkAlloc_LargeRecycled(b *testing.B) {
	p, err := New(nil, WithBlockConfig(block.ConfigSingleOwner))
	if err != nil {
		b.Fatal(err)
	}
	defer p.Destroy()

	b.ReportAllocs()
	for b.Loop() {
		buf, err := p.Alloc(2048)
		if err != nil {
			b.Fatal(err)
		}
		_ = p.Free(buf)
	}
}

func BenchmarkChildCreateDestroy(b *testing.B) {
	root, err := New(nil)
	if err != nil {
		b.Fatal(err)
	}
	defer root.Destroy()

	b.ReportAllocs()
	for b.Loop() {
		c, err := root.NewChild()
		if err != nil {
			b.Fatal(err)
		}
		if _, err := c.Alloc(1024); err != nil {
			b.Fatal(err)
		}
		_ = c.Destroy()
	}
}
