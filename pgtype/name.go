package pgtype

// Name is a type used for PostgreSQL's special 63-byte name data type, used
// for identifiers like table, column, and function names. The pg_class
// system tables use this type.
type Name Text

// Set converts from src to dst.
func (dst *Name) Set(src interface{}) error {
	return (*Text)(dst).Set(src)
}

// Get returns underlying value
func (dst Name) Get() interface{} {
	return (Text)(dst).Get()
}

// AssignTo assigns from src to dst.
func (src *Name) AssignTo(dst interface{}) error {
	return (*Text)(src).AssignTo(dst)
}

func (dst *Name) DecodeText(ci *ConnInfo, src []byte) error {
	return (*Text)(dst).DecodeText(ci, src)
}

func (dst *Name) DecodeBinary(ci *ConnInfo, src []byte) error {
	return (*Text)(dst).DecodeBinary(ci, src)
}

func (src Name) EncodeText(ci *ConnInfo, buf []byte) ([]byte, error) {
	return (Text)(src).EncodeText(ci, buf)
}

func (src Name) EncodeBinary(ci *ConnInfo, buf []byte) ([]byte, error) {
	return (Text)(src).EncodeBinary(ci, buf)
}
