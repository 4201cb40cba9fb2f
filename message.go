package noteify

import (
	"encoding/json"
)

// Wire protocol operations.
const (
	OpSend   = "send"
	OpRemove = "remove"
	OpReveal = "reveal"
)

// OutboundMessage is a producer-to-consumer message: *SendMessage or *RemoveMessage.
type OutboundMessage interface {
	outbound()
}

// InboundMessage is a consumer-to-producer message: *RevealMessage or *UnknownMessage.
type InboundMessage interface {
	inbound()
}

// SendMessage carries a full document tree replacing any prior state for its path.
type SendMessage struct {
	Doc *Root
}

func (*SendMessage) outbound() {}

// MarshalJSON encodes the message as {"op":"send","doc":...}.
func (m *SendMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op  string `json:"op"`
		Doc *Root  `json:"doc"`
	}{OpSend, m.Doc})
}

// RemoveMessage announces that a document is no longer indexed.
type RemoveMessage struct {
	Filename string
}

func (*RemoveMessage) outbound() {}

// MarshalJSON encodes the message as {"op":"remove","filename":...}.
func (m *RemoveMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string `json:"op"`
		Filename string `json:"filename"`
	}{OpRemove, m.Filename})
}

// RevealMessage asks the producer to navigate to the source of a section.
type RevealMessage struct {
	DocID SectionID
}

func (*RevealMessage) inbound() {}

// MarshalJSON encodes the message as {"op":"reveal","docId":...}.
func (m *RevealMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string    `json:"op"`
		DocID SectionID `json:"docId"`
	}{OpReveal, m.DocID})
}

// UnknownMessage is any well-formed frame without a recognized op.
// Receivers log and ignore it.
type UnknownMessage struct {
	Op string
}

func (*UnknownMessage) inbound()  {}
func (*UnknownMessage) outbound() {}

// DecodeInbound decodes a consumer frame. Frames that are not objects or carry
// an unrecognized op decode to *UnknownMessage. A reveal without a valid
// docId returns EINVALID.
func DecodeInbound(raw json.RawMessage) (InboundMessage, error) {
	op, ok := peekOp(raw)
	if !ok {
		return &UnknownMessage{}, nil
	}

	switch op {
	case OpReveal:
		var v struct {
			DocID *SectionID `json:"docId"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, Errorf(EINVALID, "reveal: invalid docId: %v", err)
		}
		if v.DocID == nil {
			return nil, Errorf(EINVALID, "reveal: docId required")
		}
		return &RevealMessage{DocID: *v.DocID}, nil
	default:
		return &UnknownMessage{Op: op}, nil
	}
}

// DecodeOutbound decodes a producer frame on the consumer side.
func DecodeOutbound(raw json.RawMessage) (OutboundMessage, error) {
	op, ok := peekOp(raw)
	if !ok {
		return &UnknownMessage{}, nil
	}

	switch op {
	case OpSend:
		var v struct {
			Doc *Root `json:"doc"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Doc == nil {
			return nil, Errorf(EINVALID, "send: doc required")
		}
		return &SendMessage{Doc: v.Doc}, nil
	case OpRemove:
		var v struct {
			Filename *string `json:"filename"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Filename == nil {
			return nil, Errorf(EINVALID, "remove: filename required")
		}
		return &RemoveMessage{Filename: *v.Filename}, nil
	default:
		return &UnknownMessage{Op: op}, nil
	}
}

// peekOp extracts the "op" field of an object frame.
func peekOp(raw json.RawMessage) (string, bool) {
	var head struct {
		Op json.RawMessage `json:"op"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Op == nil {
		return "", false
	}

	var op string
	if err := json.Unmarshal(head.Op, &op); err != nil {
		return "", false
	}
	return op, true
}
