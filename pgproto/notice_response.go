package pgproto

// NoticeResponse has the same wire layout as ErrorResponse, differing only
// in the type tag.
type NoticeResponse ErrorResponse

func (*NoticeResponse) Backend() {}

func (dst *NoticeResponse) Decode(src []byte) error {
	*dst = NoticeResponse{}
	return (*ErrorResponse)(dst).decodeFields(src)
}

func (src *NoticeResponse) Encode(dst []byte) []byte {
	return (*ErrorResponse)(src).encodeTagged(dst, 'N')
}
