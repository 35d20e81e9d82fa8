package pgtype

// GenericText is a placeholder for text format values that no other type
// handles. Unknown OIDs decode through it when the destination is
// string-shaped.
type GenericText Text

// Set converts from src to dst.
func (dst *GenericText) Set(src interface{}) error {
	return (*Text)(dst).Set(src)
}

// Get returns underlying value
func (dst GenericText) Get() interface{} {
	return (Text)(dst).Get()
}

// AssignTo assigns from src to dst.
func (src *GenericText) AssignTo(dst interface{}) error {
	return (*Text)(src).AssignTo(dst)
}

func (dst *GenericText) DecodeText(ci *ConnInfo, src []byte) error {
	return (*Text)(dst).DecodeText(ci, src)
}

func (src GenericText) EncodeText(ci *ConnInfo, buf []byte) ([]byte, error) {
	return (Text)(src).EncodeText(ci, buf)
}
