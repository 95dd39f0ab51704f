package edgex

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/marcelldls/FastCS/pkg/core"
)

// UnsupportedTypeError reports an attribute datatype with no device-resource
// mapping. Fatal to assembly: a field of unknown type cannot be safely
// exposed.
type UnsupportedTypeError struct {
	DataType core.DataType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported datatype %T: %+v", e.DataType, e.DataType)
}

// resourceProperties translates an attribute datatype into the device
// resource's value type and properties. Floats carry a display format
// encoding their decimal precision.
func resourceProperties(dt core.DataType, readWrite string) (models.ResourceProperties, error) {
	props := models.ResourceProperties{ReadWrite: readWrite}

	switch t := dt.(type) {
	case core.Bool:
		props.ValueType = common.ValueTypeBool
	case core.Int:
		props.ValueType = common.ValueTypeInt64
	case core.Float:
		props.ValueType = common.ValueTypeFloat64
		props.Optional = map[string]any{"format": fmt.Sprintf("%%.%df", t.Prec)}
	default:
		return models.ResourceProperties{}, &UnsupportedTypeError{DataType: dt}
	}
	return props, nil
}
