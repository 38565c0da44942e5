// Package codec encodes task list records and operation payloads.
//
// All integers are little-endian and there is no padding. Every payload starts
// with an 8-byte tag. The tag values are frozen: they equal the first eight
// bytes of sha256 over "account:TaskList" and "global:<instruction>" and any
// change breaks already-serialized records and requests.
package codec

import (
	"encoding/binary"
	"unicode/utf8"

	"taskledger/internal/identity"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

// Tag is an 8-byte discriminator.
type Tag [8]byte

var (
	// RecordTag marks a TaskList record.
	RecordTag = Tag{0xc2, 0x91, 0x20, 0x85, 0x61, 0xd8, 0xf6, 0xc6}

	// CreateTag marks a create request.
	CreateTag = Tag{0xaf, 0xaf, 0x6d, 0x1f, 0x0d, 0x98, 0x9b, 0xed}

	// AppendTag marks an append request.
	AppendTag = Tag{0xea, 0x28, 0x1e, 0x77, 0x96, 0x35, 0x4c, 0x53}

	// CompleteTag marks a complete request.
	CompleteTag = Tag{0x6d, 0xa7, 0xc0, 0x29, 0x81, 0x6c, 0xdc, 0xc4}

	// RemoveTag marks a remove request.
	RemoveTag = Tag{0x70, 0xdc, 0x0a, 0x6d, 0x03, 0xa8, 0x2e, 0x49}
)

const (
	tagSize = 8

	// taskHeaderSize is id + description length + completed flag.
	taskHeaderSize = 8 + 4 + 1

	// MaxTaskSize is the encoded size of a task with a maximal description.
	MaxTaskSize = taskHeaderSize + tasklist.MaxDescriptionLen

	// RecordHeaderSize is tag + owner + task count + vector length.
	RecordHeaderSize = tagSize + identity.Size + 8 + 4

	// MaxRecordSize is the allocation that fits any valid record: 8,572 bytes.
	MaxRecordSize = RecordHeaderSize + tasklist.MaxTasks*MaxTaskSize
)

// TagOf returns the tag of op.
func TagOf(op tasklist.Operation) Tag {
	switch op.(type) {
	case tasklist.Create:
		return CreateTag
	case tasklist.Append:
		return AppendTag
	case tasklist.Complete:
		return CompleteTag
	case tasklist.Remove:
		return RemoveTag
	}
	return Tag{}
}

// RecordSize returns the encoded length of l.
func RecordSize(l tasklist.TaskList) int {
	n := RecordHeaderSize
	for _, t := range l.Tasks {
		n += taskHeaderSize + len(t.Description)
	}
	return n
}

// EncodeRecord serializes l.
func EncodeRecord(l tasklist.TaskList) []byte {
	buf := make([]byte, 0, RecordSize(l))
	buf = append(buf, RecordTag[:]...)
	buf = append(buf, l.Owner[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, l.TaskCount)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(l.Tasks)))
	for _, t := range l.Tasks {
		buf = binary.LittleEndian.AppendUint64(buf, t.ID)
		buf = appendString(buf, t.Description)
		buf = appendBool(buf, t.Completed)
	}
	return buf
}

// DecodeRecord parses a record. Failures are MalformedPayload.
// The returned Tasks is never nil; an empty vector decodes to an empty slice.
func DecodeRecord(data []byte) (tasklist.TaskList, error) {
	r := reader{buf: data}

	tag, err := r.tag()
	if err != nil {
		return tasklist.TaskList{}, err
	}
	if tag != RecordTag {
		return tasklist.TaskList{}, taskerr.Malformed("record tag %x", tag[:])
	}

	var l tasklist.TaskList
	owner, err := r.bytes(identity.Size)
	if err != nil {
		return tasklist.TaskList{}, err
	}
	copy(l.Owner[:], owner)

	if l.TaskCount, err = r.u64(); err != nil {
		return tasklist.TaskList{}, err
	}
	n, err := r.u32()
	if err != nil {
		return tasklist.TaskList{}, err
	}
	// Each task needs at least taskHeaderSize bytes; reject impossible counts
	// before allocating.
	if uint64(n)*taskHeaderSize > uint64(r.remaining()) {
		return tasklist.TaskList{}, taskerr.Malformed("task vector length %d exceeds buffer", n)
	}

	l.Tasks = make([]tasklist.Task, 0, n)
	for i := uint32(0); i < n; i++ {
		var t tasklist.Task
		if t.ID, err = r.u64(); err != nil {
			return tasklist.TaskList{}, err
		}
		if t.Description, err = r.text(); err != nil {
			return tasklist.TaskList{}, err
		}
		if t.Completed, err = r.flag(); err != nil {
			return tasklist.TaskList{}, err
		}
		l.Tasks = append(l.Tasks, t)
	}

	if err := r.done(); err != nil {
		return tasklist.TaskList{}, err
	}
	return l, nil
}

// EncodeOperation serializes op with its tag.
func EncodeOperation(op tasklist.Operation) []byte {
	tag := TagOf(op)
	buf := append([]byte(nil), tag[:]...)
	return append(buf, EncodeArgs(op)...)
}

// EncodeArgs serializes the arguments of op without the tag.
func EncodeArgs(op tasklist.Operation) []byte {
	switch o := op.(type) {
	case tasklist.Append:
		return appendString(nil, o.Description)
	case tasklist.Complete:
		return binary.LittleEndian.AppendUint64(nil, o.TaskID)
	case tasklist.Remove:
		return binary.LittleEndian.AppendUint64(nil, o.TaskID)
	}
	return nil
}

// SplitTag separates the leading tag from the arguments.
func SplitTag(data []byte) (Tag, []byte, error) {
	r := reader{buf: data}
	tag, err := r.tag()
	if err != nil {
		return Tag{}, nil, err
	}
	return tag, data[tagSize:], nil
}

// DecodeOperation parses a tagged request payload. An unknown tag fails with
// UnknownOperation; layout errors fail with MalformedPayload.
func DecodeOperation(data []byte) (tasklist.Operation, error) {
	tag, args, err := SplitTag(data)
	if err != nil {
		return nil, err
	}
	return DecodeArgs(tag, args)
}

// DecodeArgs parses the arguments for the operation selected by tag.
func DecodeArgs(tag Tag, args []byte) (tasklist.Operation, error) {
	r := reader{buf: args}
	var op tasklist.Operation

	switch tag {
	case CreateTag:
		op = tasklist.Create{}
	case AppendTag:
		desc, err := r.text()
		if err != nil {
			return nil, err
		}
		op = tasklist.Append{Description: desc}
	case CompleteTag:
		id, err := r.u64()
		if err != nil {
			return nil, err
		}
		op = tasklist.Complete{TaskID: id}
	case RemoveTag:
		id, err := r.u64()
		if err != nil {
			return nil, err
		}
		op = tasklist.Remove{TaskID: id}
	default:
		return nil, taskerr.New(taskerr.UnknownOperation, "tag %x", tag[:])
	}

	if err := r.done(); err != nil {
		return nil, err
	}
	return op, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// reader consumes a buffer front to back. Every short read is MalformedPayload.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, taskerr.Malformed("need %d bytes at offset %d, have %d", n, r.off, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) tag() (Tag, error) {
	b, err := r.bytes(tagSize)
	if err != nil {
		return Tag{}, err
	}
	var t Tag
	copy(t[:], b)
	return t, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) flag() (bool, error) {
	b, err := r.bytes(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, taskerr.Malformed("invalid bool %d at offset %d", b[0], r.off-1)
}

func (r *reader) text() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.remaining()) {
		return "", taskerr.Malformed("string length %d at offset %d exceeds buffer", n, r.off-4)
	}
	b, _ := r.bytes(int(n))
	if !utf8.Valid(b) {
		return "", taskerr.Malformed("invalid utf-8 at offset %d", r.off-int(n))
	}
	return string(b), nil
}

func (r *reader) done() error {
	if n := r.remaining(); n != 0 {
		return taskerr.Malformed("%d trailing bytes", n)
	}
	return nil
}
