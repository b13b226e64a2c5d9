package engine

// ParamRef and SourceRef are opaque handles into a Program's tables. They
// are plain table indices, never pointers, so they can cross the control
// thread boundary inside a Message.
type ParamRef int

type SourceRef int

const InvalidRef = -1

type MessageKind uint8

const (
	MsgNoteOn MessageKind = iota
	MsgNoteOff
	MsgParam
	MsgParamChange
	MsgModAmount
)

// Message is a tagged struct rather than an interface so queue slots hold
// it by value and the audio thread never touches the heap draining them.
type Message[F Float] struct {
	Kind     MessageKind
	Key      uint8
	Velocity F
	Param    ParamRef
	Source   SourceRef
	Value    F
}

// Event pairs a message with the producer-side timestamp. The timestamp is
// carried for tracing only; application is block granular, not sample
// accurate.
type Event[F Float] struct {
	Time int64
	Msg  Message[F]
}

func NoteOnMsg[F Float](key uint8, velocity F) Message[F] {
	return Message[F]{Kind: MsgNoteOn, Key: key, Velocity: velocity}
}

func NoteOffMsg[F Float](key uint8, velocity F) Message[F] {
	return Message[F]{Kind: MsgNoteOff, Key: key, Velocity: velocity}
}

func ParamMsg[F Float](param ParamRef, value F) Message[F] {
	return Message[F]{Kind: MsgParam, Param: param, Value: value}
}

func ParamChangeMsg[F Float](param ParamRef, delta F) Message[F] {
	return Message[F]{Kind: MsgParamChange, Param: param, Value: delta}
}

func ModAmountMsg[F Float](param ParamRef, source SourceRef, amount F) Message[F] {
	return Message[F]{Kind: MsgModAmount, Param: param, Source: source, Value: amount}
}
