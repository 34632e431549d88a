package particles

import "testing"

func TestPoolSpawnAndCompact(t *testing.T) {
	p := NewPool(4)
	for i := 0; i < 6; i++ {
		q := p.Spawn()
		if i < 4 && q == nil {
			t.Fatalf("spawn %d returned nil with free capacity", i)
		}
		if i >= 4 && q != nil {
			t.Fatalf("spawn %d succeeded on a full pool", i)
		}
		if q != nil {
			q.BornIndex = uint64(i + 1)
		}
	}
	if p.Len() != 4 || p.Free() != 0 {
		t.Fatalf("Len = %d, Free = %d", p.Len(), p.Free())
	}

	var seen []uint64
	removed := p.Compact(
		func(q *Particle) bool { return q.BornIndex%2 == 0 },
		func(q *Particle) { seen = append(seen, q.BornIndex) },
	)
	if removed != 2 || len(seen) != 2 {
		t.Fatalf("removed %d (callback saw %v), want 2", removed, seen)
	}

	alive := p.Alive()
	if len(alive) != 2 || alive[0].BornIndex != 1 || alive[1].BornIndex != 3 {
		t.Errorf("survivors = %+v, want born 1 then 3", alive)
	}

	if q := p.Spawn(); q == nil || q.BornIndex != 0 {
		t.Errorf("respawned particle not zeroed: %+v", q)
	}
}

func TestPoolResize(t *testing.T) {
	p := NewPool(2)
	p.Spawn()
	p.Resize(8)
	if p.Len() != 0 || p.Cap() != 8 {
		t.Errorf("after Resize: Len = %d, Cap = %d", p.Len(), p.Cap())
	}
	p.Spawn()
	p.Resize(8)
	if p.Len() != 0 {
		t.Error("same-size Resize should clear")
	}
}
