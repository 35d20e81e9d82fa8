package pgtype

type Varchar Text

// Set converts from src to dst.
func (dst *Varchar) Set(src interface{}) error {
	return (*Text)(dst).Set(src)
}

// Get returns underlying value
func (dst Varchar) Get() interface{} {
	return (Text)(dst).Get()
}

// AssignTo assigns from src to dst.
func (src *Varchar) AssignTo(dst interface{}) error {
	return (*Text)(src).AssignTo(dst)
}

func (dst *Varchar) DecodeText(ci *ConnInfo, src []byte) error {
	return (*Text)(dst).DecodeText(ci, src)
}

func (dst *Varchar) DecodeBinary(ci *ConnInfo, src []byte) error {
	return (*Text)(dst).DecodeBinary(ci, src)
}

func (src Varchar) EncodeText(ci *ConnInfo, buf []byte) ([]byte, error) {
	return (Text)(src).EncodeText(ci, buf)
}

func (src Varchar) EncodeBinary(ci *ConnInfo, buf []byte) ([]byte, error) {
	return (Text)(src).EncodeBinary(ci, buf)
}
