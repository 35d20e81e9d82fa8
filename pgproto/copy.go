package pgproto

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

// The COPY sub-protocol messages are decoded so the session can recognize
// and reject a server-initiated COPY; the data-transfer phase is not
// implemented.

type CopyInResponse struct {
	OverallFormat     byte
	ColumnFormatCodes []uint16
}

func (*CopyInResponse) Backend() {}

func (dst *CopyInResponse) Decode(src []byte) error {
	return decodeCopyResponse(src, "CopyInResponse", &dst.OverallFormat, &dst.ColumnFormatCodes)
}

func (src *CopyInResponse) Encode(dst []byte) []byte {
	return encodeCopyResponse(dst, 'G', src.OverallFormat, src.ColumnFormatCodes)
}

type CopyOutResponse struct {
	OverallFormat     byte
	ColumnFormatCodes []uint16
}

func (*CopyOutResponse) Backend() {}

func (dst *CopyOutResponse) Decode(src []byte) error {
	return decodeCopyResponse(src, "CopyOutResponse", &dst.OverallFormat, &dst.ColumnFormatCodes)
}

func (src *CopyOutResponse) Encode(dst []byte) []byte {
	return encodeCopyResponse(dst, 'H', src.OverallFormat, src.ColumnFormatCodes)
}

type CopyBothResponse struct {
	OverallFormat     byte
	ColumnFormatCodes []uint16
}

func (*CopyBothResponse) Backend() {}

func (dst *CopyBothResponse) Decode(src []byte) error {
	return decodeCopyResponse(src, "CopyBothResponse", &dst.OverallFormat, &dst.ColumnFormatCodes)
}

func (src *CopyBothResponse) Encode(dst []byte) []byte {
	return encodeCopyResponse(dst, 'W', src.OverallFormat, src.ColumnFormatCodes)
}

func decodeCopyResponse(src []byte, messageType string, overallFormat *byte, columnFormatCodes *[]uint16) error {
	if len(src) < 3 {
		return &invalidMessageFormatErr{messageType: messageType}
	}

	*overallFormat = src[0]
	columnCount := int(binary.BigEndian.Uint16(src[1:]))
	rp := 3

	if len(src[rp:]) != columnCount*2 {
		return &invalidMessageFormatErr{messageType: messageType}
	}

	*columnFormatCodes = make([]uint16, columnCount)
	for i := 0; i < columnCount; i++ {
		(*columnFormatCodes)[i] = binary.BigEndian.Uint16(src[rp:])
		rp += 2
	}

	return nil
}

func encodeCopyResponse(dst []byte, tag byte, overallFormat byte, columnFormatCodes []uint16) []byte {
	dst = append(dst, tag)
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, overallFormat)
	dst = pgio.AppendUint16(dst, uint16(len(columnFormatCodes)))
	for _, fc := range columnFormatCodes {
		dst = pgio.AppendUint16(dst, fc)
	}

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}

type CopyData struct {
	Data []byte
}

func (*CopyData) Backend()  {}
func (*CopyData) Frontend() {}

func (dst *CopyData) Decode(src []byte) error {
	dst.Data = src
	return nil
}

func (src *CopyData) Encode(dst []byte) []byte {
	dst = append(dst, 'd')
	dst = pgio.AppendInt32(dst, int32(4+len(src.Data)))
	dst = append(dst, src.Data...)
	return dst
}

type CopyDone struct{}

func (*CopyDone) Backend()  {}
func (*CopyDone) Frontend() {}

func (dst *CopyDone) Decode(src []byte) error {
	if len(src) != 0 {
		return &invalidMessageLenErr{messageType: "CopyDone", expectedLen: 0, actualLen: len(src)}
	}
	return nil
}

func (src *CopyDone) Encode(dst []byte) []byte {
	dst = append(dst, 'c')
	dst = pgio.AppendInt32(dst, 4)
	return dst
}
