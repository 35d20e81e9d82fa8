package pgproto

import (
	"github.com/jackc/pgio"
)

type CloseComplete struct{}

func (*CloseComplete) Backend() {}

func (dst *CloseComplete) Decode(src []byte) error {
	if len(src) != 0 {
		return &invalidMessageLenErr{messageType: "CloseComplete", expectedLen: 0, actualLen: len(src)}
	}
	return nil
}

func (src *CloseComplete) Encode(dst []byte) []byte {
	dst = append(dst, '3')
	dst = pgio.AppendInt32(dst, 4)
	return dst
}
