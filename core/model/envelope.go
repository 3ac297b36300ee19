package model

import (
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ezoic/carprice/pkg/errors"
)

// Envelope format constants. Bump FormatVersion whenever a persisted payload
// layout changes; older blobs are then rejected instead of mis-decoded.
const (
	FormatName    = "carprice"
	FormatVersion = 1
)

// Known artifact kinds.
const (
	KindMinMaxScaler          = "minmax_scaler"
	KindRandomForestRegressor = "random_forest_regressor"
)

// Envelope wraps a persisted payload with its format, version and kind.
type Envelope struct {
	Format  string             `msgpack:"format"`
	Version int                `msgpack:"version"`
	Kind    string             `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Marshal encodes v as the payload of an envelope of the given kind.
func Marshal(kind string, v interface{}) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s payload", kind)
	}
	data, err := msgpack.Marshal(&Envelope{
		Format:  FormatName,
		Version: FormatVersion,
		Kind:    kind,
		Payload: payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s envelope", kind)
	}
	return data, nil
}

// Unmarshal decodes data into v after checking that the envelope carries the
// expected format, version and kind.
//
// Errors:
//   - ErrUnsupportedVersion: if the envelope was written by another format version
//   - ErrInvalidValue: if the format name or kind do not match
func Unmarshal(data []byte, kind string, v interface{}) error {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode envelope")
	}
	if env.Format != FormatName {
		return errors.NewValueError("model.Unmarshal", "unexpected artifact format "+strconv.Quote(env.Format))
	}
	if env.Version != FormatVersion {
		return errors.Wrapf(errors.ErrUnsupportedVersion, "artifact version %d, expected %d", env.Version, FormatVersion)
	}
	if env.Kind != kind {
		return errors.NewValueError("model.Unmarshal", "expected artifact kind "+strconv.Quote(kind)+", got "+strconv.Quote(env.Kind))
	}
	if err := msgpack.Unmarshal(env.Payload, v); err != nil {
		return errors.Wrapf(err, "failed to decode %s payload", kind)
	}
	return nil
}
