package pgproto

import (
	"github.com/jackc/pgio"
)

type Flush struct{}

func (*Flush) Frontend() {}

func (dst *Flush) Decode(src []byte) error {
	if len(src) != 0 {
		return &invalidMessageLenErr{messageType: "Flush", expectedLen: 0, actualLen: len(src)}
	}
	return nil
}

func (src *Flush) Encode(dst []byte) []byte {
	dst = append(dst, 'H')
	dst = pgio.AppendInt32(dst, 4)
	return dst
}
