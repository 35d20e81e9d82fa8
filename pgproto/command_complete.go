package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

type CommandComplete struct {
	CommandTag string
}

func (*CommandComplete) Backend() {}

func (dst *CommandComplete) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx != len(src)-1 {
		return &invalidMessageFormatErr{messageType: "CommandComplete"}
	}
	dst.CommandTag = string(src[:idx])
	return nil
}

func (src *CommandComplete) Encode(dst []byte) []byte {
	dst = append(dst, 'C')
	dst = pgio.AppendInt32(dst, int32(4+len(src.CommandTag)+1))

	dst = append(dst, src.CommandTag...)
	dst = append(dst, 0)

	return dst
}
