package pf

import (
	"container/list"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
)

// pageKey identifies a resident page across every open file. hid is a
// Manager-issued handle identity, not an OS file descriptor (Go file
// handles aren't a stable integer the way the original C++ fd is).
type pageKey struct {
	hid int
	num PageNum
}

// frame is one buffer pool slot. hid == 0 marks a free frame (no
// FileHandle is ever issued hid 0).
type frame struct {
	hid      int
	num      PageNum
	dirty    bool
	pinCount int
	payload  []byte

	// elem is this frame's node in the pool's LRU list, nil when the
	// frame is pinned (pinned frames are not eviction candidates and are
	// kept out of the list so SelectVictim never has to skip over them).
	elem *list.Element
}

// bufferPool is the process-wide, explicitly-owned buffer pool described
// in spec.md §9 ("prefer an explicit owning object... construct a new
// pool after flushing the old one" rather than a reconfigurable
// singleton). Grounded on original_source/PF/internal/buffer_manager.{h,cc}:
// a fixed frame array, an LRU list of frame indices (least-recently-used
// at the front), and a page-table hash map.
type bufferPool struct {
	frames []frame
	lru    *list.List // contains int frame indices, front = LRU, back = MRU
	table  map[pageKey]int

	free []int // indices of never-used frames, popped before evicting anything

	logger *zap.Logger
}

func newBufferPool(capacity int, logger *zap.Logger) *bufferPool {
	bp := &bufferPool{
		frames: make([]frame, capacity),
		lru:    list.New(),
		table:  make(map[pageKey]int, capacity),
		logger: logger,
	}
	for i := 0; i < capacity; i++ {
		bp.frames[i].payload = make([]byte, PageSize)
		bp.free = append(bp.free, i)
	}
	return bp
}

func (bp *bufferPool) touchMRU(idx int) {
	f := &bp.frames[idx]
	if f.elem != nil {
		bp.lru.Remove(f.elem)
		f.elem = nil
	}
	if f.pinCount == 0 {
		f.elem = bp.lru.PushBack(idx)
	}
}

// lookup returns the frame index resident for key, if any.
func (bp *bufferPool) lookup(key pageKey) (int, bool) {
	idx, ok := bp.table[key]
	return idx, ok
}

// pin increments the pin count of a resident frame and removes it from
// eviction eligibility.
func (bp *bufferPool) pin(idx int) {
	f := &bp.frames[idx]
	f.pinCount++
	if f.elem != nil {
		bp.lru.Remove(f.elem)
		f.elem = nil
	}
}

// selectVictim picks a frame to evict: a never-used frame first, else the
// least-recently-used unpinned resident frame. Returns rc.PfNoBuffer if
// every frame is pinned.
func (bp *bufferPool) selectVictim() (int, error) {
	if len(bp.free) > 0 {
		idx := bp.free[len(bp.free)-1]
		bp.free = bp.free[:len(bp.free)-1]
		return idx, nil
	}
	front := bp.lru.Front()
	if front == nil {
		return 0, rc.PfNoBuffer
	}
	idx := front.Value.(int)
	bp.lru.Remove(front)
	bp.frames[idx].elem = nil
	return idx, nil
}

// evict removes the page table entry for idx, if any was present (a
// never-used frame has none).
func (bp *bufferPool) evict(idx int) {
	f := &bp.frames[idx]
	if f.hid != 0 {
		delete(bp.table, pageKey{hid: f.hid, num: f.num})
	}
	f.hid = 0
	f.dirty = false
	f.pinCount = 0
}

// install assigns key to frame idx, pinned once, at the MRU position.
func (bp *bufferPool) install(idx int, key pageKey, payload []byte) {
	f := &bp.frames[idx]
	f.hid = key.hid
	f.num = key.num
	f.dirty = false
	f.pinCount = 1
	copy(f.payload, payload)
	bp.table[key] = idx
}

// resize flushes every dirty frame via flush, then rebuilds the pool at
// the new capacity. Per spec.md §5: "reconfiguring its size flushes all
// dirty frames before reallocation."
func (bp *bufferPool) resize(capacity int, flush func(idx int) error) error {
	for i := range bp.frames {
		if bp.frames[i].hid != 0 && bp.frames[i].dirty {
			if err := flush(i); err != nil {
				return err
			}
		}
	}
	*bp = *newBufferPool(capacity, bp.logger)
	return nil
}

func (bp *bufferPool) stats() (total, used int) {
	total = len(bp.frames)
	for i := range bp.frames {
		if bp.frames[i].hid != 0 {
			used++
		}
	}
	return total, used
}

func (bp *bufferPool) describe() string {
	total, used := bp.stats()
	return fmt.Sprintf("buffer pool: %d/%d frames in use", used, total)
}
