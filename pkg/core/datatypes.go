package core

// DataType describes the value type of an attribute. The set is closed:
// backends switch over it and reject anything they cannot represent.
type DataType interface {
	dataType()
}

// Bool is a two-state value.
type Bool struct{}

// Int is a signed integer value.
type Int struct{}

// Float is a floating-point value displayed with Prec decimal places.
type Float struct {
	Prec int
}

func (Bool) dataType()  {}
func (Int) dataType()   {}
func (Float) dataType() {}
