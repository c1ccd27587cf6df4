// Package record holds the typed input of a recovery: the declared point
// count n, the threshold k and the encoded points in document order.
package record

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/Davincible/polyrecover/pkg/crypto/radix"
	"github.com/Davincible/polyrecover/pkg/crypto/shamir"
	"github.com/elliotchance/orderedmap/v2"
	jsoniter "github.com/json-iterator/go"
)

const keysField = "keys"

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingKeys     = errors.New("record is missing keys")
)

// Entry is one encoded point. X is parsed from Key.
type Entry struct {
	Key   string
	X     int64
	Value string
	Base  int
}

type Record struct {
	// N is the number of points the producer claims to have issued. It is
	// informational and never checked against len(Entries).
	N       int
	K       int
	Entries []Entry
}

var recordAPI = jsoniter.Config{
	IndentionStep: 2,
	EscapeHTML:    false,
}.Froze()

// Parse reads a record document. Entries keep the order in which their keys
// first appear; a repeated key replaces the earlier value in place.
func Parse(data []byte) (*Record, error) {
	iter := jsoniter.ParseBytes(recordAPI, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: top level value is not an object", ErrMalformedRecord)
	}

	rec := &Record{}
	entries := orderedmap.NewOrderedMap[string, Entry]()
	var parseErr error
	var haveKeys, haveN, haveK bool

	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field == keysField {
			haveKeys = true
			haveN, haveK, parseErr = readKeys(it, rec)
			return parseErr == nil
		}

		entry, err := readEntry(it, field)
		if err != nil {
			parseErr = err
			return false
		}
		entries.Set(field, entry)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, iter.Error)
	}
	// Only whitespace may follow the record; reaching the end sets io.EOF.
	iter.WhatIsNext()
	if iter.Error != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after record", ErrMalformedRecord)
	}

	switch {
	case !haveKeys:
		return nil, fmt.Errorf("%w: no %q object", ErrMissingKeys, keysField)
	case !haveN:
		return nil, fmt.Errorf("%w: no n", ErrMissingKeys)
	case !haveK:
		return nil, fmt.Errorf("%w: no k", ErrMissingKeys)
	}

	rec.Entries = make([]Entry, 0, entries.Len())
	for el := entries.Front(); el != nil; el = el.Next() {
		rec.Entries = append(rec.Entries, el.Value)
	}

	return rec, nil
}

func readKeys(it *jsoniter.Iterator, rec *Record) (haveN, haveK bool, err error) {
	if it.WhatIsNext() != jsoniter.ObjectValue {
		return false, false, fmt.Errorf("%w: %q must be an object", ErrMalformedRecord, keysField)
	}

	it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch field {
		case "n":
			rec.N, err = readInt(it, "keys.n")
			haveN = err == nil
		case "k":
			rec.K, err = readInt(it, "keys.k")
			haveK = err == nil
		default:
			it.Skip()
		}
		return err == nil
	})

	return haveN, haveK, err
}

func readEntry(it *jsoniter.Iterator, key string) (Entry, error) {
	x, err := strconv.ParseInt(key, 10, 64)
	if err != nil || x < 0 {
		return Entry{}, fmt.Errorf("%w: key %q is not a non-negative integer", ErrMalformedRecord, key)
	}
	if it.WhatIsNext() != jsoniter.ObjectValue {
		return Entry{}, fmt.Errorf("%w: entry %q must be an object", ErrMalformedRecord, key)
	}

	entry := Entry{Key: key, X: x}
	var haveValue, haveBase bool

	it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch field {
		case "value":
			if it.WhatIsNext() != jsoniter.StringValue {
				err = fmt.Errorf("%w: entry %q value must be a string", ErrMalformedRecord, key)
				return false
			}
			entry.Value = it.ReadString()
			haveValue = true
		case "base":
			entry.Base, err = readBase(it, key)
			haveBase = err == nil
		default:
			it.Skip()
		}
		return err == nil
	})

	if err != nil {
		return Entry{}, err
	}
	if !haveValue || !haveBase {
		return Entry{}, fmt.Errorf("%w: entry %q needs both value and base", ErrMalformedRecord, key)
	}

	return entry, nil
}

// readBase accepts "16" as well as 16. The range is checked by the decoder.
func readBase(it *jsoniter.Iterator, key string) (int, error) {
	var text string
	switch it.WhatIsNext() {
	case jsoniter.StringValue:
		text = strings.TrimSpace(it.ReadString())
	case jsoniter.NumberValue:
		text = string(it.ReadNumber())
	default:
		it.Skip()
		return 0, fmt.Errorf("%w: entry %q base must be a string or number", ErrMalformedRecord, key)
	}

	base, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: entry %q base %q is not an integer", ErrMalformedRecord, key, text)
	}
	return base, nil
}

func readInt(it *jsoniter.Iterator, name string) (int, error) {
	if it.WhatIsNext() != jsoniter.NumberValue {
		it.Skip()
		return 0, fmt.Errorf("%w: %s must be a number", ErrMalformedRecord, name)
	}
	text := string(it.ReadNumber())
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrMalformedRecord, name, text)
	}
	return v, nil
}

// Validate checks the threshold. N is not enforced.
func (r *Record) Validate() error {
	if r.K < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", shamir.ErrInvalidThreshold, r.K)
	}
	return nil
}

// Points decodes every entry, in order.
func (r *Record) Points() ([]shamir.Point, error) {
	points := make([]shamir.Point, 0, len(r.Entries))
	for _, e := range r.Entries {
		y, err := radix.Decode(e.Value, e.Base)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.key(), err)
		}
		points = append(points, shamir.Point{X: e.X, Y: y})
	}
	return points, nil
}

// Solve recovers the constant term from the first K entries.
func Solve(r *Record) (*big.Int, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(r.Entries) < r.K {
		return nil, fmt.Errorf("%w: need %d, record has %d", shamir.ErrInsufficientPoints, r.K, len(r.Entries))
	}

	points, err := r.Points()
	if err != nil {
		return nil, err
	}

	return shamir.ConstantTerm(points, r.K)
}

// Marshal writes the record with keys first and entries in order.
func (r *Record) Marshal() ([]byte, error) {
	stream := recordAPI.BorrowStream(nil)
	defer recordAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField(keysField)
	stream.WriteObjectStart()
	stream.WriteObjectField("n")
	stream.WriteInt(r.N)
	stream.WriteMore()
	stream.WriteObjectField("k")
	stream.WriteInt(r.K)
	stream.WriteObjectEnd()

	for _, e := range r.Entries {
		stream.WriteMore()
		stream.WriteObjectField(e.key())
		stream.WriteObjectStart()
		stream.WriteObjectField("base")
		stream.WriteString(strconv.Itoa(e.Base))
		stream.WriteMore()
		stream.WriteObjectField("value")
		stream.WriteString(e.Value)
		stream.WriteObjectEnd()
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, fmt.Errorf("failed to encode record: %w", stream.Error)
	}

	out := make([]byte, len(stream.Buffer()), len(stream.Buffer())+1)
	copy(out, stream.Buffer())
	return append(out, '\n'), nil
}

func (e Entry) key() string {
	if e.Key != "" {
		return e.Key
	}
	return strconv.FormatInt(e.X, 10)
}
