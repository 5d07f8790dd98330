package importqueue

// bucket is a max-heap of sharedRequests ordered by priority, implementing
// container/heap.Interface. One bucket exists per RequestKind.
type bucket struct {
	items []*sharedRequest
}

func (b *bucket) Len() int { return len(b.items) }

func (b *bucket) Less(i, j int) bool {
	return b.items[i].priority > b.items[j].priority
}

func (b *bucket) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.items[i].heapIndex = i
	b.items[j].heapIndex = j
}

func (b *bucket) Push(x any) {
	req := x.(*sharedRequest)
	req.heapIndex = len(b.items)
	b.items = append(b.items, req)
}

func (b *bucket) Pop() any {
	old := b.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIndex = -1
	b.items = old[:n-1]
	return item
}

// frontPriority returns the priority of the bucket's highest-priority
// element, or minPriorityValue if the bucket is empty.
func (b *bucket) frontPriority() int64 {
	if len(b.items) == 0 {
		return minPriorityValue
	}
	return b.items[0].priority
}
