package framepool

// State is the allocation state of a single frame.
type State uint8

const (
	// Free frames are available for allocation. The zero value, so a cleared
	// map is an all-free map.
	Free State = 0

	// Used frames are allocated and follow the head of their run.
	Used State = 1

	// HeadOfSequence frames are allocated and start their run.
	HeadOfSequence State = 2
)

const (
	bitsPerFrame  = 2
	framesPerByte = 8 / bitsPerFrame
	stateMask     = 1<<bitsPerFrame - 1
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Used:
		return "used"
	case HeadOfSequence:
		return "head"
	default:
		return "invalid"
	}
}

// stateMap packs one State per frame, four to a byte, frame i in bits
// (i%4)*2 of byte i/4. get and set are the only code touching the packing.
type stateMap []byte

func (m stateMap) get(i uint64) State {
	return State(m[i/framesPerByte]>>((i%framesPerByte)*bitsPerFrame)) & stateMask
}

func (m stateMap) set(i uint64, s State) {
	shift := (i % framesPerByte) * bitsPerFrame
	b := &m[i/framesPerByte]
	*b = *b&^(stateMask<<shift) | byte(s)<<shift
}

// MapBytes returns the bytes a state map for n frames occupies: ceil(2n / 8).
func MapBytes(n uint64) uint64 {
	return n/framesPerByte + min(n%framesPerByte, 1)
}
