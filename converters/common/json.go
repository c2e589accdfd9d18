package common

import (
	"time"

	"github.com/Station-Manager/errors"
	"github.com/aarondl/null/v8"
	boilertypes "github.com/aarondl/sqlboiler/v4/types"
	"github.com/goccy/go-json"
)

// ToJSON encodes any decoded document value as raw JSON. Raw JSON values pass through.
func ToJSON(src any) (any, error) {
	const op errors.Op = "converters.common.ToJSON"
	switch v := src.(type) {
	case boilertypes.JSON:
		return v, nil
	case null.JSON:
		if !v.Valid {
			return boilertypes.JSON("null"), nil
		}
		return boilertypes.JSON(v.JSON), nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return boilertypes.JSON(nil), errors.New(op).Err(err)
	}
	return boilertypes.JSON(raw), nil
}

// Plain unwraps nullable and raw JSON values into values a document encoder renders naturally.
// Invalid nullable values become nil.
func Plain(src any) (any, error) {
	const op errors.Op = "converters.common.Plain"
	switch v := src.(type) {
	case null.String:
		if !v.Valid {
			return nil, nil
		}
		return v.String, nil
	case null.Int64:
		if !v.Valid {
			return nil, nil
		}
		return v.Int64, nil
	case null.Float64:
		if !v.Valid {
			return nil, nil
		}
		return v.Float64, nil
	case null.Bool:
		if !v.Valid {
			return nil, nil
		}
		return v.Bool, nil
	case null.Time:
		if !v.Valid {
			return nil, nil
		}
		return v.Time.Format(time.RFC3339Nano), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case boilertypes.JSON:
		if len(v) == 0 {
			return nil, nil
		}
		var out any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, errors.New(op).Err(err)
		}
		return out, nil
	}
	return src, nil
}
