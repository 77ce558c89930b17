package dirqueue

// PayloadField is the single mandatory binary field a SimpleQueue uses
// under the hood. SimpleQueue is not a distinct on-disk format: it is a
// NormalQueue whose schema carries exactly this one field, so the two
// families share every directory-handling, locking, and purge code path.
const PayloadField = "payload"

func simpleSchema() Schema {
	return Schema{PayloadField: Field{Type: Binary}}
}

// SimpleQueue is a NormalQueue restricted to a single binary payload per
// element, for callers that don't need the field schema and just want to
// push and pop opaque blobs.
type SimpleQueue struct {
	*NormalQueue
}

// OpenSimple opens (creating if necessary) a SimpleQueue rooted at path.
// opts.Schema must be left unset; OpenSimple supplies the fixed payload
// schema.
func OpenSimple(path string, opts Options) (*SimpleQueue, error) {
	if opts.Schema != nil {
		return nil, ErrInvalidOption
	}
	opts.Schema = simpleSchema()
	nq, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &SimpleQueue{NormalQueue: nq}, nil
}

// Copy returns an independent iterator over the same queue.
func (q *SimpleQueue) Copy() *SimpleQueue {
	return &SimpleQueue{NormalQueue: &NormalQueue{base: q.copyBase(), schema: q.schema}}
}

// Add stores payload as a new element and returns its name.
func (q *SimpleQueue) Add(payload []byte) (string, error) {
	return q.NormalQueue.Add(Fields{PayloadField: payload})
}

// Get requires name to be locked and returns its payload.
func (q *SimpleQueue) Get(name string) ([]byte, error) {
	fields, err := q.NormalQueue.Get(name)
	if err != nil {
		return nil, err
	}
	payload, _ := fields[PayloadField].([]byte)
	return payload, nil
}
