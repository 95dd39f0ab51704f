package edgex

import (
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelldls/FastCS/pkg/core"
)

func TestResourcePropertiesBool(t *testing.T) {
	props, err := resourceProperties(core.Bool{}, common.ReadWrite_RW)
	require.NoError(t, err)
	assert.Equal(t, common.ValueTypeBool, props.ValueType)
	assert.Equal(t, common.ReadWrite_RW, props.ReadWrite)
	assert.Nil(t, props.Optional)
}

func TestResourcePropertiesInt(t *testing.T) {
	props, err := resourceProperties(core.Int{}, common.ReadWrite_R)
	require.NoError(t, err)
	assert.Equal(t, common.ValueTypeInt64, props.ValueType)
	assert.Nil(t, props.Optional)
}

func TestResourcePropertiesFloat(t *testing.T) {
	props, err := resourceProperties(core.Float{Prec: 2}, common.ReadWrite_RW)
	require.NoError(t, err)
	assert.Equal(t, common.ValueTypeFloat64, props.ValueType)
	assert.Equal(t, "%.2f", props.Optional["format"])
}

type unknownType struct{ core.DataType }

func TestResourcePropertiesUnsupported(t *testing.T) {
	_, err := resourceProperties(unknownType{}, common.ReadWrite_R)
	require.Error(t, err)

	var ute *UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Contains(t, ute.Error(), "unknownType")
}
