package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// traceCodec holds the CBOR modes shared by trace writers and readers.
type traceCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// codec builds the modes on first use. Records are canonical so that two
// traces of the same traffic compare byte for byte.
var codec = sync.OnceValue(func() traceCodec {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: encoder mode: %v", err))
	}

	dec, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: decoder mode: %v", err))
	}
	return traceCodec{enc: enc, dec: dec}
})

// EncodeEvent encodes one trace record.
func EncodeEvent(event Event) ([]byte, error) {
	return codec().enc.Marshal(event)
}

// DecodeEvent decodes one trace record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := codec().dec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func newEncoder(w io.Writer) *cbor.Encoder { return codec().enc.NewEncoder(w) }
func newDecoder(r io.Reader) *cbor.Decoder { return codec().dec.NewDecoder(r) }
