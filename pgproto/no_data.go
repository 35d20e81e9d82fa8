package pgproto

import (
	"github.com/jackc/pgio"
)

type NoData struct{}

func (*NoData) Backend() {}

func (dst *NoData) Decode(src []byte) error {
	if len(src) != 0 {
		return &invalidMessageLenErr{messageType: "NoData", expectedLen: 0, actualLen: len(src)}
	}
	return nil
}

func (src *NoData) Encode(dst []byte) []byte {
	dst = append(dst, 'n')
	dst = pgio.AppendInt32(dst, 4)
	return dst
}
