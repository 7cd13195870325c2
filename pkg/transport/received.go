package transport

// RecvStatus tells the three receive outcomes apart.
type RecvStatus uint8

const (
	// RecvData means Data holds at least one byte.
	RecvData RecvStatus = iota

	// RecvEOF means the peer closed the stream gracefully.
	RecvEOF

	// RecvTimeout means the receive deadline passed with no data.
	RecvTimeout
)

// String returns the status name.
func (s RecvStatus) String() string {
	switch s {
	case RecvData:
		return "DATA"
	case RecvEOF:
		return "EOF"
	case RecvTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Received is the result of a successful Recv.
type Received struct {
	Status RecvStatus
	Data   []byte
}

// EOF reports whether the peer closed the stream.
func (r Received) EOF() bool { return r.Status == RecvEOF }

// TimedOut reports whether the receive deadline passed with no data.
func (r Received) TimedOut() bool { return r.Status == RecvTimeout }
