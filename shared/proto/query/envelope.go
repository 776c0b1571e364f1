// Package query define as mensagens trocadas entre o servidor de consultas
// e os clientes pelo WebSocket. Toda mensagem viaja dentro de um Envelope.
package query

import (
	"fmt"

	"FortressModels/shared/pkg/protowire"
)

// EnvelopeType identifica o conteúdo de Envelope.Payload.
type EnvelopeType int32

const (
	EnvelopeUnknown EnvelopeType = iota
	EnvelopePing
	EnvelopePong
	EnvelopeServerStatus
	EnvelopeResolveRequest
	EnvelopeResolveResponse
)

var envelopeNames = map[EnvelopeType]string{
	EnvelopeUnknown:         "UNKNOWN",
	EnvelopePing:            "PING",
	EnvelopePong:            "PONG",
	EnvelopeServerStatus:    "SERVER_STATUS",
	EnvelopeResolveRequest:  "RESOLVE_REQUEST",
	EnvelopeResolveResponse: "RESOLVE_RESPONSE",
}

func (t EnvelopeType) String() string {
	if n, ok := envelopeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("EnvelopeType(%d)", int32(t))
}

// Envelope é o quadro de nível superior de cada mensagem binária.
type Envelope struct {
	Type    EnvelopeType
	Payload []byte
}

// Message é implementado por todas as mensagens que cabem num envelope.
type Message interface {
	Marshal() []byte
	Unmarshal(data []byte) error
}

// Wrap serializa msg dentro de um envelope. msg pode ser nil (PING/PONG).
func Wrap(t EnvelopeType, msg Message) []byte {
	env := Envelope{Type: t}
	if msg != nil {
		env.Payload = msg.Marshal()
	}
	return env.Marshal()
}

func (m *Envelope) Marshal() []byte {
	e := protowire.NewEncoder()
	e.EncodeVarint(1, int64(m.Type))
	if len(m.Payload) > 0 {
		e.EncodeSubmessage(2, m.Payload)
	}
	return e.Bytes()
}

func (m *Envelope) Unmarshal(data []byte) error {
	d := protowire.NewDecoder(data)
	for !d.Done() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.Type = EnvelopeType(v)
		case 2:
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			m.Payload = append([]byte(nil), v...)
		default:
			if err := d.SkipField(fieldNum, wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

// ServerStatus é enviado logo após a conexão.
type ServerStatus struct {
	Message  string
	Models   uint32
	Pages    uint32
	PageSize uint32
}

func (m *ServerStatus) Marshal() []byte {
	e := protowire.NewEncoder()
	e.EncodeString(1, m.Message)
	e.EncodeUvarint(2, uint64(m.Models))
	e.EncodeUvarint(3, uint64(m.Pages))
	e.EncodeUvarint(4, uint64(m.PageSize))
	return e.Bytes()
}

func (m *ServerStatus) Unmarshal(data []byte) error {
	d := protowire.NewDecoder(data)
	for !d.Done() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1:
			v, err := d.ReadString()
			if err != nil {
				return err
			}
			m.Message = v
		case 2, 3, 4:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			switch fieldNum {
			case 2:
				m.Models = uint32(v)
			case 3:
				m.Pages = uint32(v)
			case 4:
				m.PageSize = uint32(v)
			}
		default:
			if err := d.SkipField(fieldNum, wireType); err != nil {
				return err
			}
		}
	}
	return nil
}
