package converters

import (
	"math"
	"strconv"
	"strings"

	"github.com/Station-Manager/errors"
)

// ToFrequencyHz converts a frequency in MHz, given as a string or a number, to an int64 in Hz.
func ToFrequencyHz(src any) (any, error) {
	const op errors.Op = "converters.ToFrequencyHz"
	var mhz float64
	switch v := src.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return int64(0), errors.New(op).Msg(ErrMsgFreqParamEmpty)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return int64(0), errors.New(op).Err(err)
		}
		mhz = f
	default:
		f, err := CheckFloat64(op, src)
		if err != nil {
			return int64(0), errors.New(op).Err(err)
		}
		mhz = f
	}
	return int64(math.Round(mhz * 1e6)), nil
}

// FormatFrequencyMHz renders a frequency in Hz as MHz with 3 decimal places.
func FormatFrequencyMHz(hz int64) string {
	return strconv.FormatFloat(float64(hz)/1e6, 'f', 3, 64)
}
