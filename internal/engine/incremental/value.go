package incremental

import (
	"context"
	"encoding/json"
	"time"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/zerr"
)

// SerializedOutputKey is the output property holding the value cached by ExecuteForValue.
const SerializedOutputKey = "serializedOutput"

// ValueResult is the result of a unit of work that computes a value.
type ValueResult[T any] struct {
	Value     T
	Outputs   []string
	ExpiresAt time.Time
}

// ExecuteForValue caches a JSON-serializable value computed by work.
//
// When a cached value cannot be decoded, for example because T changed without a change
// of code version, the error is logged and work runs again with forced recalculation.
func ExecuteForValue[T any](
	ctx context.Context,
	c *Cache,
	id string,
	configuration map[string]string,
	inputs []string,
	work func(ctx context.Context) (ValueResult[T], error),
	opts ...ExecuteOption,
) (ValueResult[T], error) {
	var computed *ValueResult[T]

	res, err := c.Execute(ctx, id, configuration, inputs, func(ctx context.Context) (domain.ExecutionResult, error) {
		v, err := work(ctx)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		computed = &v

		encoded, err := json.Marshal(v.Value)
		if err != nil {
			return domain.ExecutionResult{}, zerr.With(zerr.Wrap(err, domain.ErrValueEncodeFailed.Error()), "id", id)
		}
		return domain.ExecutionResult{
			Outputs:          v.Outputs,
			OutputProperties: map[string]string{SerializedOutputKey: string(encoded)},
			ExpiresAt:        v.ExpiresAt,
		}, nil
	}, opts...)
	if err != nil {
		return ValueResult[T]{}, err
	}

	if computed != nil {
		return *computed, nil
	}

	var value T
	if err := decodeValue(res.OutputProperties, &value); err != nil {
		c.logger.Error(zerr.With(zerr.Wrap(err, "failed to decode cached value, the cache will be discarded"), "id", id))
		return ExecuteForValue(ctx, c, id, configuration, inputs, work, append(opts, WithForceRecalculation())...)
	}

	return ValueResult[T]{
		Value:     value,
		Outputs:   res.Outputs,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

func decodeValue(properties map[string]string, target any) error {
	encoded, ok := properties[SerializedOutputKey]
	if !ok {
		return zerr.New("no " + SerializedOutputKey + " property")
	}
	return json.Unmarshal([]byte(encoded), target)
}
