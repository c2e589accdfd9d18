package converters

import (
	"time"

	"github.com/Station-Manager/errors"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// ToTime converts a timestamp string to a UTC time.Time. time.Time values pass through.
func ToTime(src any) (any, error) {
	const op errors.Op = "converters.ToTime"
	if t, ok := src.(time.Time); ok {
		return t.UTC(), nil
	}
	srcVal, err := CheckString(op, src)
	if err != nil {
		return time.Time{}, errors.New(op).Err(err)
	}
	for _, layout := range timestampLayouts {
		if t, perr := time.Parse(layout, srcVal); perr == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New(op).Msg(ErrMsgBadTimestamp)
}

// ToDate normalises a YYYYMMDD or YYYY-MM-DD date string to YYYYMMDD.
func ToDate(src any) (any, error) {
	const op errors.Op = "converters.ToDate"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return "", errors.New(op).Err(err)
	}

	var retVal time.Time
	switch len(srcVal) {
	case 8:
		retVal, err = time.Parse("20060102", srcVal)
	case 10:
		if srcVal[4] == '-' && srcVal[7] == '-' {
			retVal, err = time.Parse("2006-01-02", srcVal)
		} else {
			return "", errors.New(op).Msg(ErrMsgBadDateFormat)
		}
	default:
		return "", errors.New(op).Msg(ErrMsgBadDateFormat)
	}

	if err != nil {
		return "", errors.New(op).Err(err).Msg(ErrMsgBadDateFormat)
	}
	return retVal.Format("20060102"), nil
}

// ToClock normalises an HH:MM or HHMM time of day to HHMM.
func ToClock(src any) (any, error) {
	const op errors.Op = "converters.ToClock"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return "", errors.New(op).Err(err)
	}

	var retVal time.Time
	switch {
	case len(srcVal) == 5 && srcVal[2] == ':':
		retVal, err = time.Parse("15:04", srcVal)
	case len(srcVal) == 4:
		retVal, err = time.Parse("1504", srcVal)
	default:
		return "", errors.New(op).Msg(ErrMsgBadTimeFormat)
	}
	if err != nil {
		return "", errors.New(op).Err(err).Msg(ErrMsgBadTimeFormat)
	}
	return retVal.Format("1504"), nil
}
