package edgex

import (
	"fmt"
	"time"

	sdkModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
)

// encodeValue wraps an attribute's cached value in a CommandValue of the
// resource's declared type. A nil cache (nothing set yet) encodes as the
// type's zero value.
func encodeValue(resourceName, valueType string, value any) (*sdkModels.CommandValue, error) {
	var (
		cv  *sdkModels.CommandValue
		err error
	)

	switch valueType {
	case common.ValueTypeBool:
		v, ok := value.(bool)
		if value != nil && !ok {
			return nil, fmt.Errorf("resource %s: cached value %T is not a bool", resourceName, value)
		}
		cv, err = sdkModels.NewCommandValue(resourceName, common.ValueTypeBool, v)
	case common.ValueTypeInt64:
		v, convErr := toInt64(value)
		if convErr != nil {
			return nil, fmt.Errorf("resource %s: %w", resourceName, convErr)
		}
		cv, err = sdkModels.NewCommandValue(resourceName, common.ValueTypeInt64, v)
	case common.ValueTypeFloat64:
		v, convErr := toFloat64(value)
		if convErr != nil {
			return nil, fmt.Errorf("resource %s: %w", resourceName, convErr)
		}
		cv, err = sdkModels.NewCommandValue(resourceName, common.ValueTypeFloat64, v)
	default:
		return nil, fmt.Errorf("resource %s: unsupported value type %s", resourceName, valueType)
	}

	if err != nil {
		return nil, fmt.Errorf("creating CommandValue for %s: %w", resourceName, err)
	}
	cv.Origin = time.Now().UnixNano()
	return cv, nil
}

// decodeValue extracts the written value from a CommandValue by its declared
// type.
func decodeValue(param *sdkModels.CommandValue) (any, error) {
	switch param.Type {
	case common.ValueTypeBool:
		return param.BoolValue()
	case common.ValueTypeInt64:
		return param.Int64Value()
	case common.ValueTypeFloat64:
		return param.Float64Value()
	default:
		return nil, fmt.Errorf("resource %s: unsupported value type %s", param.DeviceResourceName, param.Type)
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cached value %T is not an integer", value)
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cached value %T is not a float", value)
	}
}
