package migrate

// fileQueue keeps migrations in the order they must run
type fileQueue struct {
	order  []fileIdentifier
	queued map[fileIdentifier]struct{}
}

func (q *fileQueue) has(fid fileIdentifier) bool {
	_, ok := q.queued[fid]
	return ok
}

func (q *fileQueue) enqueue(fid fileIdentifier) {
	if q.queued == nil {
		q.queued = make(map[fileIdentifier]struct{})
	}

	q.queued[fid] = struct{}{}
	q.order = append(q.order, fid)
}

func (q *fileQueue) next() bool {
	return len(q.order) > 0
}

// dequeue pops the head of the queue. It stays reported by has
// so a migration is never queued twice within one run.
func (q *fileQueue) dequeue() fileIdentifier {
	fid := q.order[0]
	q.order = q.order[1:]

	return fid
}

func (q *fileQueue) len() int {
	return len(q.order)
}
