package web

type MessageType int

const (
	JSONMessage MessageType = iota
	// BinaryMessage carries a raw JPEG preview frame.
	BinaryMessage
)

type Message struct {
	Type MessageType
	Data []byte
}

func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
